// Package config defines the file based configuration of an organized neighbor searcher.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/organized/logging"
	"go.viam.com/organized/search"
	"go.viam.com/organized/transform"
)

// maxPyramidLevel bounds the pyramid level to a shift that still makes sense for an int.
const maxPyramidLevel = 31

// Search describes how a searcher is built and calibrated.
type Search struct {
	SortedResults bool     `json:"sorted_results"`
	Epsilon       *float64 `json:"eps,omitempty"`
	PyramidLevel  *uint    `json:"pyramid_level,omitempty"`
	LogLevel      string   `json:"log_level,omitempty"`

	// Intrinsics, when set, are installed directly instead of estimating the projection from
	// the cloud.
	Intrinsics *transform.PinholeCameraIntrinsics `json:"intrinsics,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Search) Validate(path string) error {
	var err error
	if cfg.Epsilon != nil && !(*cfg.Epsilon > 0) {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("eps must be positive, got %g", *cfg.Epsilon)))
	}
	if cfg.PyramidLevel != nil && *cfg.PyramidLevel > maxPyramidLevel {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("pyramid_level must be at most %d, got %d", maxPyramidLevel, *cfg.PyramidLevel)))
	}
	if cfg.LogLevel != "" {
		if _, levelErr := logging.LevelFromString(cfg.LogLevel); levelErr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError(path, levelErr))
		}
	}
	if cfg.Intrinsics != nil {
		intrinsicsPath := fmt.Sprintf("%s.%s", path, "intrinsics")
		switch {
		case cfg.Intrinsics.Width == 0:
			err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(intrinsicsPath, "width_px"))
		case cfg.Intrinsics.Height == 0:
			err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(intrinsicsPath, "height_px"))
		default:
			if checkErr := cfg.Intrinsics.CheckValid(); checkErr != nil {
				err = multierr.Append(err, utils.NewConfigValidationError(intrinsicsPath, checkErr))
			}
		}
	}
	return err
}

// Options converts the config to searcher options.
func (cfg *Search) Options() []search.Option {
	opts := []search.Option{search.WithSortedResults(cfg.SortedResults)}
	if cfg.Epsilon != nil {
		opts = append(opts, search.WithEpsilon(*cfg.Epsilon))
	}
	if cfg.PyramidLevel != nil {
		opts = append(opts, search.WithPyramidLevel(*cfg.PyramidLevel))
	}
	return opts
}

// Level returns the configured log level, INFO if none is set.
func (cfg *Search) Level() logging.Level {
	if cfg.LogLevel == "" {
		return logging.INFO
	}
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// FromAttributes decodes a config from loosely typed attributes, such as those embedded in a
// larger configuration document.
func FromAttributes(attrs map[string]interface{}) (*Search, error) {
	var cfg Search
	if err := cfg.ApplyAttributes(attrs); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyAttributes decodes attrs over cfg, replacing only the fields attrs names. String values
// are converted to the field's type, so "eps": "1e-5" is accepted.
func (cfg *Search) ApplyAttributes(attrs map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return errors.Wrap(err, "error decoding search attributes")
	}
	return nil
}
