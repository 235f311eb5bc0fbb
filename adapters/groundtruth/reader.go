// Package groundtruth reads reference arrays exported from the source
// implementation. A directory holds one file per module: <module>.json or
// <module>.xlsx.
package groundtruth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"equivproof/domain/tensor"
	"equivproof/internal"
	"equivproof/internal/errors"
	"equivproof/ports"

	"github.com/xuri/excelize/v2"
)

// jsonArray is the on-disk form of one array in a <module>.json file.
type jsonArray struct {
	Shape []int     `json:"shape"`
	Real  []float64 `json:"real"`
	Imag  []float64 `json:"imag,omitempty"`
}

// DirReader implements ports.GroundTruthPort over a directory.
type DirReader struct {
	dir    string
	logger *internal.Logger
}

// NewDirReader creates a reader for dir.
func NewDirReader(dir string, logger *internal.Logger) *DirReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DirReader{dir: dir, logger: logger.With("GroundTruth")}
}

// Load reads every module file in the directory. A missing directory is an
// empty mapping; a module present as both .json and .xlsx is an error.
func (r *DirReader) Load(ctx context.Context) (ports.GroundTruth, error) {
	gt := make(ports.GroundTruth)
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		r.logger.Debug("ground truth directory %s not found; nothing to load", r.dir)
		return gt, nil
	}
	if err != nil {
		return nil, errors.GroundTruthError(r.dir, err)
	}

	start := time.Now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		module := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		path := filepath.Join(r.dir, e.Name())

		var arrays map[string]*tensor.Artifact
		switch ext {
		case ".json":
			arrays, err = ReadJSON(path)
		case ".xlsx":
			arrays, err = ReadXLSX(path)
		default:
			continue
		}
		if err != nil {
			return nil, errors.GroundTruthError(path, err)
		}
		if _, dup := gt[module]; dup {
			return nil, errors.GroundTruthError(path, fmt.Errorf("module %q defined twice", module))
		}
		gt[module] = arrays
	}
	r.logger.Info("loaded %d ground-truth modules from %s in %.2fms", len(gt), r.dir, float64(time.Since(start).Nanoseconds())/1e6)
	return gt, nil
}

var _ ports.GroundTruthPort = (*DirReader)(nil)

// ReadJSON reads one <module>.json file.
func ReadJSON(path string) (map[string]*tensor.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]jsonArray
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	out := make(map[string]*tensor.Artifact, len(raw))
	for name, arr := range raw {
		a, err := arr.artifact()
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", name, err)
		}
		out[name] = a
	}
	return out, nil
}

func (j jsonArray) artifact() (*tensor.Artifact, error) {
	if j.Imag != nil && len(j.Imag) != len(j.Real) {
		return nil, fmt.Errorf("real has %d values but imag has %d", len(j.Real), len(j.Imag))
	}
	data := make([]complex128, len(j.Real))
	for i, re := range j.Real {
		var im float64
		if j.Imag != nil {
			im = j.Imag[i]
		}
		data[i] = complex(re, im)
	}
	return tensor.New(j.Shape, data)
}

// ReadXLSX reads one <module>.xlsx file: one sheet per array, row 1 holds
// "shape" followed by the dimensions, each following row one element as
// real and imaginary part.
func ReadXLSX(path string) (map[string]*tensor.Artifact, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	out := make(map[string]*tensor.Artifact)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		a, err := parseSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		out[sheet] = a
	}
	return out, nil
}

func parseSheet(rows [][]string) (*tensor.Artifact, error) {
	if len(rows) == 0 || len(rows[0]) == 0 || !strings.EqualFold(strings.TrimSpace(rows[0][0]), "shape") {
		return nil, fmt.Errorf(`first row must start with "shape"`)
	}
	shape := make([]int, 0, len(rows[0])-1)
	for _, cell := range rows[0][1:] {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q: %w", cell, err)
		}
		shape = append(shape, d)
	}

	data := make([]complex128, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		re, err := parseCell(row, 0)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		im, err := parseCell(row, 1)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		data = append(data, complex(re, im))
	}
	return tensor.New(shape, data)
}

func parseCell(row []string, col int) (float64, error) {
	if col >= len(row) || strings.TrimSpace(row[col]) == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
}

// WriteXLSX writes arrays in the layout ReadXLSX expects, sheets sorted by
// name.
func WriteXLSX(path string, arrays map[string]*tensor.Artifact) error {
	if len(arrays) == 0 {
		return errors.InvalidInput("no arrays to write")
	}
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	f := excelize.NewFile()
	defer f.Close()
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		a := arrays[name]
		header := []interface{}{"shape"}
		for _, d := range a.Shape {
			header = append(header, d)
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for j, v := range a.Data {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			row := []interface{}{real(v), imag(v)}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// WriteJSON writes arrays in the layout ReadJSON expects.
func WriteJSON(path string, arrays map[string]*tensor.Artifact) error {
	raw := make(map[string]jsonArray, len(arrays))
	for name, a := range arrays {
		j := jsonArray{Shape: a.Shape, Real: make([]float64, len(a.Data)), Imag: make([]float64, len(a.Data))}
		for i, v := range a.Data {
			j.Real[i], j.Imag[i] = real(v), imag(v)
		}
		raw[name] = j
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
