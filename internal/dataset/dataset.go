// Package dataset loads labelled feature vectors from CSV and serves them in
// batches.
//
// Each row is f1,...,fn,label with an integer class label in the last
// column. A first row whose label field is not an integer is a header.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

// ErrInconsistentRow indicates a row whose feature count differs from the
// first row.
var ErrInconsistentRow = errors.New("inconsistent feature count")

// Dataset is an in-memory set of samples.
type Dataset struct {
	Inputs [][]float64
	Labels []int
	// Header holds the column names when the file had a header row.
	Header []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Labels) }

// Features returns the number of features per sample.
func (d *Dataset) Features() int {
	if len(d.Inputs) == 0 {
		return 0
	}
	return len(d.Inputs[0])
}

// Classes returns one more than the largest label.
func (d *Dataset) Classes() int {
	max := -1
	for _, l := range d.Labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Load reads a dataset from a CSV file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a dataset from CSV.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	ds := &Dataset{}
	width := -1
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want at least one feature and a label, got %d fields", line, len(rec))
		}

		labelField := strings.TrimSpace(rec[len(rec)-1])
		label, err := strconv.Atoi(labelField)
		if err != nil {
			if line == 1 {
				ds.Header = append([]string(nil), rec...)
				continue
			}
			return nil, fmt.Errorf("line %d: label %q: %w", line, labelField, err)
		}
		if label < 0 {
			return nil, fmt.Errorf("line %d: negative label %d", line, label)
		}

		n := len(rec) - 1
		if width < 0 {
			width = n
		} else if n != width {
			return nil, fmt.Errorf("line %d: %w: got %d, want %d", line, ErrInconsistentRow, n, width)
		}

		x := make([]float64, n)
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, j+1, err)
			}
			x[j] = v
		}
		ds.Inputs = append(ds.Inputs, x)
		ds.Labels = append(ds.Labels, label)
	}
	return ds, nil
}

// Loader batches a Dataset. It implements training.Loader.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

var _ training.Loader = (*Loader)(nil)

// NewLoader creates a Loader. With shuffle the sample order is permuted on
// every call to Batches using a generator seeded with seed.
func NewLoader(ds *Dataset, batchSize int, shuffle bool, seed int64) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Loader{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of samples in the dataset.
func (l *Loader) Len() int { return l.ds.Len() }

// Batches returns one epoch of batches. The last batch may be short.
func (l *Loader) Batches() []training.Batch {
	n := l.ds.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	out := make([]training.Batch, 0, (n+l.batchSize-1)/l.batchSize)
	for start := 0; start < n; start += l.batchSize {
		end := min(start+l.batchSize, n)
		b := training.Batch{
			Inputs:  make([][]float64, 0, end-start),
			Targets: make([]int, 0, end-start),
		}
		for _, i := range order[start:end] {
			b.Inputs = append(b.Inputs, l.ds.Inputs[i])
			b.Targets = append(b.Targets, l.ds.Labels[i])
		}
		out = append(out, b)
	}
	return out
}
