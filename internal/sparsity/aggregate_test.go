package sparsity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

func rows(tb *table.Table) [][]string {
	out := make([][]string, len(tb.Rows))
	for i, row := range tb.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Format("NaN")
		}
	}
	return out
}

func TestAggregate(t *testing.T) {
	experiments := []Experiment{
		{Name: "synflow", Records: []Record{
			{Module: "conv2", Param: "weight", Sparsity: 0.5, Flops: 1000},
			{Module: "conv2", Param: "bias", Sparsity: 1, Flops: 11},
			{Module: "conv1", Param: "weight", Sparsity: 0.25, Flops: 401},
			{Module: "bn", Param: "bias", Sparsity: 1, Flops: 7},
		}},
		{Name: "snip", Records: []Record{
			{Module: "conv1", Param: "weight", Sparsity: 0.1, Flops: 400},
			{Module: "conv2", Param: "weight", Sparsity: 0.2, Flops: 1000},
			{Module: "extra", Param: "weight", Sparsity: 0.3, Flops: 50},
		}},
		{Name: "dense", Records: []Record{
			{Module: "conv2", Param: "bias", Sparsity: 1, Flops: 3},
		}},
	}

	got := Aggregate(experiments)

	assert.Equal(t, []string{"module", "synflow", "snip"}, got.Sparsity.Columns)
	if diff := cmp.Diff([][]string{
		{"conv2", "0.5", "0.2"},
		{"conv1", "0.25", "0.1"},
	}, rows(got.Sparsity)); diff != "" {
		t.Errorf("sparsity mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"module", "synflow", "snip", "dense"}, got.TotalFlops.Columns)
	if diff := cmp.Diff([][]string{
		{"conv2", "1011", "1000", "3"},
		{"conv1", "401", "400", "NaN"},
	}, rows(got.TotalFlops)); diff != "" {
		t.Errorf("total flops mismatch (-want +got):\n%s", diff)
	}

	// trunc(1011*0.5)=505, trunc(401*0.25)=100, modules without a weight row keep their total
	if diff := cmp.Diff([][]string{
		{"conv2", "505", "200", "3"},
		{"conv1", "100", "40", "NaN"},
	}, rows(got.ActualFlops)); diff != "" {
		t.Errorf("actual flops mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_FirstExperimentWithoutWeights(t *testing.T) {
	got := Aggregate([]Experiment{
		{Name: "dense", Records: []Record{{Module: "fc", Param: "bias", Sparsity: 1, Flops: 2}}},
		{Name: "snip", Records: []Record{
			{Module: "fc", Param: "weight", Sparsity: 0.5, Flops: 10},
			{Module: "conv", Param: "weight", Sparsity: 0.5, Flops: 20},
		}},
	})

	assert.Equal(t, []string{"module", "snip"}, got.Sparsity.Columns)
	assert.Equal(t, []string{"fc", "conv"}, firstColumn(got.Sparsity))
	assert.Equal(t, []string{"fc", "conv"}, firstColumn(got.TotalFlops))
}

func TestAggregate_NoWeightRows(t *testing.T) {
	got := Aggregate([]Experiment{
		{Name: "b", Records: []Record{{Module: "z", Param: "bias", Sparsity: 1, Flops: 2}}},
		{Name: "a", Records: []Record{{Module: "m", Param: "bias", Sparsity: 1, Flops: 3}}},
	})

	assert.True(t, got.Sparsity.Empty())
	assert.Equal(t, []string{"module", "b", "a"}, got.TotalFlops.Columns)
	if diff := cmp.Diff([][]string{
		{"m", "NaN", "3"},
		{"z", "2", "NaN"},
	}, rows(got.TotalFlops)); diff != "" {
		t.Errorf("total flops mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, rows(got.TotalFlops), rows(got.ActualFlops))
}

func TestAggregate_RepeatedWeightRows(t *testing.T) {
	got := Aggregate([]Experiment{
		{Name: "snip", Records: []Record{
			{Module: "conv", Param: "weight", Sparsity: 0.5, Flops: 100},
			{Module: "fc", Param: "weight", Sparsity: 0.1, Flops: 10},
			{Module: "conv", Param: "weight", Sparsity: 0.25, Flops: 100},
		}},
	})

	if diff := cmp.Diff([][]string{
		{"conv", "0.25"},
		{"fc", "0.1"},
		{"conv", "0.25"},
	}, rows(got.Sparsity)); diff != "" {
		t.Errorf("sparsity mismatch (-want +got):\n%s", diff)
	}
	// both conv rows add to the total; the last sparsity scales it
	assert.Equal(t, []string{"conv", "200"}, rows(got.TotalFlops)[2])
	assert.Equal(t, []string{"conv", "50"}, rows(got.ActualFlops)[0])
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	assert.True(t, got.Sparsity.Empty())
	assert.True(t, got.ActualFlops.Empty())
	assert.True(t, got.TotalFlops.Empty())
}

func firstColumn(tb *table.Table) []string {
	var out []string
	for _, c := range tb.Column(ColExperimentModule) {
		out = append(out, c.Format(""))
	}
	return out
}

func TestLoad(t *testing.T) {
	base := t.TempDir()
	header := "module,param,sparsity,flops\n"
	good := writeFile(t, filepath.Join(base, "snip-vgg16-c0.5-a", "compression.csv"), header+"fc,weight,0.5,10\n")
	bad := writeFile(t, filepath.Join(base, "grasp-vgg16-c0.5-a", "compression.csv"), "module,flops\nfc,10\n")
	other := writeFile(t, filepath.Join(base, "synflow-vgg16-c0.5-a", "compression.csv"), header+"fc,weight,0.25,10\n")
	dup := writeFile(t, filepath.Join(base, "snip-vgg16-c0.5-b", "compression.csv"), header+"fc,weight,0.75,10\n")

	logger := logging.NewTestLogger()
	m := metrics.New()

	got, err := Load(context.Background(), []string{good, bad, other, dup}, logger.Logger, m)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "snip", got[0].Name)
	assert.Equal(t, dup, got[0].Path)
	assert.Equal(t, 0.75, got[0].Records[0].Sparsity)
	assert.Equal(t, "synflow", got[1].Name)

	logger.AssertLogged(t, zapcore.WarnLevel, "skipping record file")
	logger.AssertField(t, "skipping record file", "experiment", "grasp")
	logger.AssertLogged(t, zapcore.WarnLevel, "duplicate experiment name")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FilesProcessedTotal.WithLabelValues("stats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesSkippedTotal.WithLabelValues("stats", "missing_column")))
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, []string{"x"}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
