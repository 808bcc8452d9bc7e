package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	ds, err := Read(strings.NewReader("x1,x2,label\n0.5,1,0\n-1, 2e1 ,2\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"x1", "x2", "label"}, ds.Header)
	assert.Equal(t, [][]float64{{0.5, 1}, {-1, 20}}, ds.Inputs)
	assert.Equal(t, []int{0, 2}, ds.Labels)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, ds.Features())
	assert.Equal(t, 3, ds.Classes())
}

func TestRead_NoHeader(t *testing.T) {
	ds, err := Read(strings.NewReader("1,2,3,1\n"))
	require.NoError(t, err)
	assert.Nil(t, ds.Header)
	assert.Equal(t, [][]float64{{1, 2, 3}}, ds.Inputs)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad label after header", "a,label\n1,x\n"},
		{"bad feature", "1,0\nfoo,1\n"},
		{"too few fields", "1\n"},
		{"inconsistent width", "1,2,0\n1,0\n"},
		{"negative label", "1,-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := Read(strings.NewReader("1,2,0\n1,0\n"))
	assert.ErrorIs(t, err, ErrInconsistentRow)
}

func TestRead_Empty(t *testing.T) {
	ds, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
	assert.Zero(t, ds.Features())
	assert.Zero(t, ds.Classes())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,0\n2,1\n"), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func sequential(n int) *Dataset {
	ds := &Dataset{}
	for i := 0; i < n; i++ {
		ds.Inputs = append(ds.Inputs, []float64{float64(i)})
		ds.Labels = append(ds.Labels, i)
	}
	return ds
}

func TestLoader_Batches(t *testing.T) {
	l, err := NewLoader(sequential(5), 2, false, 0)
	require.NoError(t, err)

	bs := l.Batches()
	require.Len(t, bs, 3)
	assert.Equal(t, []int{0, 1}, bs[0].Targets)
	assert.Equal(t, []int{2, 3}, bs[1].Targets)
	assert.Equal(t, []int{4}, bs[2].Targets)
	assert.Equal(t, [][]float64{{4}}, bs[2].Inputs)
	assert.Equal(t, 5, l.Len())
}

func TestLoader_Shuffle(t *testing.T) {
	targets := func(l *Loader) []int {
		var out []int
		for _, b := range l.Batches() {
			out = append(out, b.Targets...)
		}
		return out
	}

	a, err := NewLoader(sequential(20), 3, true, 7)
	require.NoError(t, err)
	b, err := NewLoader(sequential(20), 3, true, 7)
	require.NoError(t, err)

	first := targets(a)
	assert.Equal(t, first, targets(b), "same seed, same order")

	second := targets(a)
	assert.NotEqual(t, first, second, "order changes between epochs")

	sorted := append([]int(nil), second...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v)
	}
}

func TestNewLoader_InvalidBatchSize(t *testing.T) {
	_, err := NewLoader(sequential(1), 0, false, 0)
	assert.Error(t, err)
}
