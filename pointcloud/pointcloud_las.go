package pointcloud

import (
	"encoding/binary"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

const (
	// lasGridTag names the variable length record holding the grid size. LAS itself has no
	// notion of rows and columns.
	lasGridTag = "organized|grid"
	// lasClassNoise is the ASPRS "low point (noise)" class, used for invalid cells.
	lasClassNoise = 7
	lasClassMask  = 0x1f
)

// NewFromLASFile reads an organized cloud from a LAS file. Points are taken in file order as
// the row-major cells of a width x height grid and points classified as noise are invalid.
// When width and height are both zero they come from the grid record written by
// WriteToLASFile; otherwise they must match it, if present.
func NewFromLASFile(fn string, width, height int) (*Organized, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	for _, vlr := range lf.VlrData {
		// fixed width record fields may come back padded
		if strings.TrimRight(vlr.Description, "\x00 ") != lasGridTag {
			continue
		}
		gridWidth, gridHeight, err := decodeLASGrid(vlr.BinaryData)
		if err != nil {
			return nil, err
		}
		if width == 0 && height == 0 {
			width, height = gridWidth, gridHeight
		} else if width != gridWidth || height != gridHeight {
			return nil, errors.Errorf("requested a %dx%d grid but %q holds a %dx%d grid",
				width, height, fn, gridWidth, gridHeight)
		}
		break
	}
	if width == 0 && height == 0 {
		return nil, errors.Errorf("%q has no grid record, its width and height must be given", fn)
	}
	if lf.Header.NumberPoints != width*height {
		return nil, errors.Errorf("%q holds %d points but a %dx%d grid has %d cells",
			fn, lf.Header.NumberPoints, width, height, width*height)
	}

	points := make([]r3.Vector, lf.Header.NumberPoints)
	mask := make([]bool, len(points))
	for i := range points {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		points[i] = r3.Vector{X: data.X, Y: data.Y, Z: data.Z}
		mask[i] = data.ClassBitField.Value&lasClassMask != lasClassNoise && IsFinite(points[i])
	}
	return NewOrganizedWithMask(width, height, points, mask)
}

// WriteToLASFile writes the cloud to fn in point format 0. Invalid cells are written at the
// origin and classified as noise.
func WriteToLASFile(cloud *Organized, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	if err := lf.AddHeader(lidario.LasHeader{PointFormatID: 0}); err != nil {
		return err
	}
	for idx := 0; idx < cloud.Size(); idx++ {
		var class byte
		p, ok := cloud.Point(idx)
		if !ok {
			p = r3.Vector{}
			class = lasClassNoise
		}
		if err := lf.AddLasPoint(&lidario.PointRecord0{
			X: p.X,
			Y: p.Y,
			Z: p.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: class,
			},
			PointSourceID: 1,
		}); err != nil {
			return err
		}
	}

	grid := encodeLASGrid(cloud)
	return lf.AddVLR(lidario.VLR{
		Description:             lasGridTag,
		BinaryData:              grid,
		RecordLengthAfterHeader: len(grid),
	})
}

// encodeLASGrid lays out the grid record: width and height as little endian uint32.
func encodeLASGrid(cloud *Organized) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, uint32(cloud.Width()))
	binary.LittleEndian.PutUint32(buf[4:], uint32(cloud.Height()))
	return buf
}

func decodeLASGrid(data []byte) (int, int, error) {
	if len(data) != 8 {
		return 0, 0, errors.Errorf("grid record is %d bytes, expected 8", len(data))
	}
	return int(binary.LittleEndian.Uint32(data)), int(binary.LittleEndian.Uint32(data[4:])), nil
}
