package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

func TestProgress_Fraction(t *testing.T) {
	p := NewProgress(4)
	assert.Equal(t, 0.0, p.Fraction())

	p.Update(-1, training.EpochRow{TrainLoss: math.NaN(), Top1: 10})
	assert.Equal(t, 0.0, p.Fraction())

	p.Update(1, training.EpochRow{Top1: 50})
	assert.Equal(t, 0.5, p.Fraction())

	p.Update(5, training.EpochRow{Top1: 50})
	assert.Equal(t, 1.0, p.Fraction())

	assert.Equal(t, 1.0, NewProgress(0).Fraction())
}

func TestProgress_View(t *testing.T) {
	p := NewProgress(2)
	start := time.Unix(0, 0)
	p.started = start
	p.now = func() time.Time { return start.Add(65 * time.Second) }

	assert.Contains(t, p.View(), "no data")

	p.Update(-1, training.EpochRow{TrainLoss: math.NaN(), TestLoss: 2.3, Top1: 10, Top5: 50, TestingTime: math.NaN()})
	p.Update(0, training.EpochRow{TrainLoss: 1.25, TestLoss: 1.1, Top1: 61.5, Top5: 97, TestingTime: 0.25})

	view := p.View()
	assert.Contains(t, view, "1/2")
	assert.Contains(t, view, "1.2500")
	assert.Contains(t, view, "61.50%")
	assert.Contains(t, view, "250.0ms")
	assert.Contains(t, view, "1m 5s")
	assert.NotContains(t, view, "no data")
}

func TestAppendHistory_Bounded(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, 5.0, h[0])
}
