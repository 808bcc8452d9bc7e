package sparsity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var wantRecords = []Record{
	{Module: "layers.0", Param: "weight", Sparsity: 0.5, Flops: 1000},
	{Module: "layers.0", Param: "bias", Sparsity: 1, Flops: 10},
	{Module: "fc", Param: "weight", Sparsity: 0.25, Flops: 400},
}

func TestLoadRecords_CSV(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "compression.csv"),
		"module,param,shape,sparsity,flops\n"+
			"layers.0,weight,\"(64, 3, 3, 3)\",0.5,1000\n"+
			"layers.0,bias,(64),1.0,10\n"+
			"fc,weight,\"(10, 512)\",0.25,4e2\n")

	got, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, wantRecords, got)
}

func TestLoadRecords_JSON(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "compression.json"), `[
  {"module": "layers.0", "param": "weight", "sparsity": 0.5, "flops": 1000},
  {"module": "layers.0", "param": "bias", "sparsity": 1, "flops": 10, "size": 64},
  {"module": "fc", "param": "weight", "sparsity": 0.25, "flops": 400}
]`)

	got, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, wantRecords, got)
}

func TestLoadRecords_YAML(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "compression.yml"), `
- {module: layers.0, param: weight, sparsity: 0.5, flops: 1000}
- module: layers.0
  param: bias
  sparsity: 1
  flops: 10
- {module: fc, param: weight, sparsity: 0.25, flops: 400}
`)

	got, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, wantRecords, got)
}

func TestLoadRecords_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		is      error
	}{
		{"csv missing column", "a.csv", "module,param,sparsity\nfc,weight,0.5\n", ErrMissingColumn},
		{"csv empty", "b.csv", "", ErrMissingColumn},
		{"json missing field", "c.json", `[{"module": "fc", "param": "weight", "flops": 1}]`, ErrMissingColumn},
		{"yaml missing field", "d.yaml", "- {module: fc, sparsity: 0.5, flops: 1}\n", ErrMissingColumn},
		{"unknown extension", "e.pkl", "binary", ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(dir, tt.file), tt.content)
			_, err := LoadRecords(path)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	t.Run("bad number", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "f.csv"), "module,param,sparsity,flops\nfc,weight,half,1\n")
		_, err := LoadRecords(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRecords(filepath.Join(dir, "nope.csv"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	for _, dir := range []string{
		"synflow-vgg16-cifar10-singleshot-lottery-c0.5-pre0-post100",
		"grasp-vgg16-cifar10-singleshot-lottery-c0.5-pre0-post100",
		"snip-vgg16-cifar10-singleshot-lottery-c1-pre0-post100",
		"rand-resnet20-cifar10-singleshot-lottery-c0.5-pre0-post100",
	} {
		writeFile(t, filepath.Join(base, "singleshot", dir, "compression.csv"), "module,param,sparsity,flops\n")
	}
	// matching directory without a record file
	require.NoError(t, os.MkdirAll(filepath.Join(base, "singleshot", "mag-vgg16-cifar10-singleshot-lottery-c0.5-pre0-post100"), 0o755))

	got, err := Discover(base, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(base, "singleshot", "grasp-vgg16-cifar10-singleshot-lottery-c0.5-pre0-post100", "compression.csv"),
		filepath.Join(base, "singleshot", "synflow-vgg16-cifar10-singleshot-lottery-c0.5-pre0-post100", "compression.csv"),
	}, got)

	got, err = Discover(base, "singleshot/*", DefaultRecordFile)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = Discover(base, "[bad", "")
	assert.Error(t, err)
}
