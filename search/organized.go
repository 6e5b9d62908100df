// Package search implements nearest neighbor queries over organized point clouds.
//
// Instead of building a spatial index, an OrganizedNeighbor estimates the projection matrix of
// the sensor that captured the cloud and uses it to bound, in pixel space, the region of the
// grid that can contain the answer to a query. Radius queries scan that region directly; k
// nearest queries grow a window around the query's pixel until the region implied by the current
// k-th best candidate is fully scanned.
//
// An OrganizedNeighbor must be calibrated (Calibrate or SetIntrinsics) before it can answer
// queries. Queries against a calibrated searcher are read only and may run concurrently.
// Calibration swaps in a new immutable snapshot, so a query always sees one consistent
// calibration; callers that need every query to see the newest calibration must still order
// calibration before issuing those queries.
package search

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/organized/logging"
	"go.viam.com/organized/pointcloud"
)

var (
	// ErrNotCalibrated is returned by queries issued before a successful calibration.
	ErrNotCalibrated = errors.New("organized neighbor search is not calibrated")
	// ErrNotOrganized is returned when calibrating a cloud that is a single row or column.
	ErrNotOrganized = errors.New("input dataset is not organized")
	// ErrNotProjective is returned when the cloud is not well explained by a pinhole projection.
	ErrNotProjective = errors.New("input dataset is not from a projective device")
	// ErrInvalidQuery is returned for queries with non-finite coordinates or invalid bounds.
	ErrInvalidQuery = errors.New("invalid query")
)

const (
	defaultEpsilon      = 1e-4
	defaultPyramidLevel = 5
)

type options struct {
	sortedResults bool
	epsilon       float64
	pyramidLevel  uint
}

// Option configures an OrganizedNeighbor.
type Option func(*options)

// WithSortedResults makes RadiusSearch return its results sorted by ascending distance.
// NearestKSearch results are always sorted.
func WithSortedResults(sorted bool) Option {
	return func(o *options) {
		o.sortedResults = sorted
	}
}

// WithEpsilon sets the largest mean squared algebraic residual per sample point for which a
// fitted projection matrix is accepted.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		o.epsilon = eps
	}
}

// WithPyramidLevel sets how densely the grid is sampled for calibration: every
// (dimension >> level)-th row and column is used.
func WithPyramidLevel(level uint) Option {
	return func(o *options) {
		o.pyramidLevel = level
	}
}

// OrganizedNeighbor answers radius and k nearest neighbor queries over one organized cloud.
type OrganizedNeighbor struct {
	cloud  *pointcloud.Organized
	logger logging.Logger
	opts   options

	calib atomic.Pointer[calibration]
}

// NewOrganizedNeighbor returns an uncalibrated searcher over cloud.
func NewOrganizedNeighbor(cloud *pointcloud.Organized, logger logging.Logger, opts ...Option) (*OrganizedNeighbor, error) {
	if cloud == nil {
		return nil, errors.New("cloud must not be nil")
	}
	o := options{
		epsilon:      defaultEpsilon,
		pyramidLevel: defaultPyramidLevel,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.epsilon <= 0 {
		return nil, errors.Errorf("epsilon must be positive, got %g", o.epsilon)
	}
	if logger == nil {
		logger = logging.NewBlankLogger("search")
	}
	return &OrganizedNeighbor{
		cloud:  cloud,
		logger: logger,
		opts:   o,
	}, nil
}

// Cloud returns the searched cloud.
func (s *OrganizedNeighbor) Cloud() *pointcloud.Organized {
	return s.cloud
}

// SortedResults reports whether radius search results are sorted.
func (s *OrganizedNeighbor) SortedResults() bool {
	return s.opts.sortedResults
}

// Calibrated reports whether the searcher holds a usable projection matrix.
func (s *OrganizedNeighbor) Calibrated() bool {
	return s.calib.Load() != nil
}

// Reset discards the current calibration.
func (s *OrganizedNeighbor) Reset() {
	s.calib.Store(nil)
}

// snapshot returns the calibration a query runs against, after checking the query point.
func (s *OrganizedNeighbor) snapshot(query r3.Vector) (*calibration, error) {
	if !pointcloud.IsFinite(query) {
		return nil, errors.Wrapf(ErrInvalidQuery, "non-finite query point %v", query)
	}
	c := s.calib.Load()
	if c == nil {
		return nil, ErrNotCalibrated
	}
	return c, nil
}
