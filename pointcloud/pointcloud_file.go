package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = iota
	// PCDBinary binary format for pcd.
	PCDBinary
	// PCDCompressed binary format for pcd.
	PCDCompressed
)

// NewFromFile returns the organized cloud stored in the given file. LAS files must carry the
// grid record written by WriteToLASFile.
func NewFromFile(fn string) (*Organized, error) {
	switch filepath.Ext(fn) {
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPCD(f)
	case ".las":
		return NewFromLASFile(fn, 0, 0)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// WriteToPCDFile writes the cloud to fn, creating or truncating it.
func WriteToPCDFile(cloud *Organized, fn string, outputType PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := ToPCD(cloud, w, outputType); err != nil {
		return err
	}
	return w.Flush()
}

// ToPCD writes the cloud as an organized pcd with WIDTH and HEIGHT set to the grid's. Invalid
// cells are written as nan.
func ToPCD(cloud *Organized, out io.Writer, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDAscii:
		data = "ascii"
	case PCDBinary:
		data = "binary"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown pcd data type %v", outputType)
	}

	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		cloud.Width(),
		cloud.Height(),
		cloud.Size(),
		data)
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud *Organized, out io.Writer, pcdtype PCDType) error {
	nan := r3.Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	buf := make([]byte, 12)
	for idx := 0; idx < cloud.Size(); idx++ {
		p, ok := cloud.Point(idx)
		if !ok {
			p = nan
		}
		var err error
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
			_, err = out.Write(buf)
		default:
			_, err = fmt.Fprintf(out, "%s %s %s\n", formatPCDFloat(p.X), formatPCDFloat(p.Y), formatPCDFloat(p.Z))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func formatPCDFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 32)
}

type pcdValType string

const pcdValFloat pcdValType = "F"

type pcdHeader struct {
	fields []string
	size   []uint64
	types  []pcdValType
	count  []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if len(tokens) < 3 || tokens[0] != "x" || tokens[1] != "y" || tokens[2] != "z" {
			return errors.Errorf("unsupported pcd fields %s, must start with x y z", value)
		}
		header.fields = tokens
	case "SIZE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		header.types = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			header.types[i] = pcdValType(token)
		}
		for i := 0; i < 3; i++ {
			if header.types[i] != pcdValFloat || (header.size[i] != 4 && header.size[i] != 8) {
				return errors.Errorf("field %s must be a 4 or 8 byte float", header.fields[i])
			}
		}
	case "COUNT":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid COUNT field %s", token)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid HEIGHT field %s", value)
		}
	case "VIEWPOINT":
		// only the identity viewpoint is meaningful for a cloud in the sensor frame
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
	case "POINTS":
		header.points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		if header.points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", header.points, header.width*header.height)
		}
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}
	return nil
}

// ReadPCD reads an organized cloud from pcd data. Points with a nan coordinate become invalid
// cells.
func ReadPCD(inRaw io.Reader) (*Organized, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	for i, c := range header.count {
		if c != 1 {
			return nil, errors.Errorf("field %s has COUNT %d, only 1 is supported", header.fields[i], c)
		}
	}

	var points []r3.Vector
	var err error
	switch header.data {
	case PCDAscii:
		points, err = readPCDAscii(in, header)
	case PCDBinary:
		points, err = readPCDBinary(in, header)
	default:
		return nil, errors.New("compressed pcd not yet supported")
	}
	if err != nil {
		return nil, err
	}
	return NewOrganized(int(header.width), int(header.height), points)
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) ([]r3.Vector, error) {
	points := make([]r3.Vector, 0, header.points)
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		var coords [3]float64
		for j := range coords {
			coords[j], err = strconv.ParseFloat(tokens[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid point %d field %s", i, tokens[j])
			}
		}
		points = append(points, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	return points, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) ([]r3.Vector, error) {
	var stride uint64
	for _, size := range header.size {
		stride += size
	}
	points := make([]r3.Vector, 0, header.points)
	buf := make([]byte, stride)
	for i := 0; i < int(header.points); i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		var coords [3]float64
		offset := uint64(0)
		for j := range coords {
			coords[j] = readFloat(buf[offset:], header.size[j])
			offset += header.size[j]
		}
		points = append(points, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	return points, nil
}

func readFloat(buf []byte, size uint64) float64 {
	if size == 8 {
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
}
