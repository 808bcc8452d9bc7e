package sparsity

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column names of a record file.
const (
	ColModule   = "module"
	ColParam    = "param"
	ColSparsity = "sparsity"
	ColFlops    = "flops"
)

// ErrUnsupportedFormat indicates a record file with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported record format")

// LoadRecords reads a record file, choosing the decoder by extension:
// .csv, .json, .yaml or .yml.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = decodeCSV(f)
	case ".json":
		records, err = decodeJSON(f)
	case ".yaml", ".yml":
		records, err = decodeYAML(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// decodeCSV reads a headed CSV. Columns beyond the required four are ignored.
func decodeCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{ColModule, ColParam, ColSparsity, ColFlops} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(c string) string {
			if i := idx[c]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		sparsity, err := strconv.ParseFloat(field(ColSparsity), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: sparsity: %w", line, err)
		}
		flops, err := strconv.ParseFloat(field(ColFlops), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: flops: %w", line, err)
		}
		records = append(records, Record{
			Module:   field(ColModule),
			Param:    field(ColParam),
			Sparsity: sparsity,
			Flops:    flops,
		})
	}
	return records, nil
}

// rawRecord uses pointers so absent fields can be told apart from zeros.
type rawRecord struct {
	Module   *string  `json:"module" yaml:"module"`
	Param    *string  `json:"param" yaml:"param"`
	Sparsity *float64 `json:"sparsity" yaml:"sparsity"`
	Flops    *float64 `json:"flops" yaml:"flops"`
}

func (r rawRecord) record(i int) (Record, error) {
	var missing []string
	if r.Module == nil {
		missing = append(missing, ColModule)
	}
	if r.Param == nil {
		missing = append(missing, ColParam)
	}
	if r.Sparsity == nil {
		missing = append(missing, ColSparsity)
	}
	if r.Flops == nil {
		missing = append(missing, ColFlops)
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("record %d: %w: %s", i, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return Record{Module: *r.Module, Param: *r.Param, Sparsity: *r.Sparsity, Flops: *r.Flops}, nil
}

func fromRaw(raw []rawRecord) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		rec, err := r.record(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeJSON(r io.Reader) ([]Record, error) {
	var raw []rawRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

func decodeYAML(r io.Reader) ([]Record, error) {
	var raw []rawRecord
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return fromRaw(raw)
}
