// Package monitor renders the progress of a training run for the terminal:
// an epoch progress bar, the latest metrics and a sparkline of top-1
// accuracy.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 100
	barWidth        = 40
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// Progress tracks the epochs of a training run.
type Progress struct {
	epochs  int
	done    int
	started time.Time
	now     func() time.Time

	bar  progress.Model
	last training.EpochRow
	top1 []float64
}

// NewProgress creates a Progress for a run of epochs epochs.
func NewProgress(epochs int) *Progress {
	return &Progress{
		epochs:  epochs,
		started: time.Now(),
		now:     time.Now,
		bar: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(barWidth),
		),
		top1: make([]float64, 0, historySize),
	}
}

// Update records the row of epoch. The initial evaluation is epoch -1.
func (p *Progress) Update(epoch int, row training.EpochRow) {
	p.done = epoch + 1
	p.last = row
	p.top1 = appendHistory(p.top1, row.Top1)
}

// Fraction returns the completed share of epochs in [0, 1].
func (p *Progress) Fraction() float64 {
	if p.epochs <= 0 {
		return 1
	}
	f := float64(p.done) / float64(p.epochs)
	if f > 1 {
		return 1
	}
	return f
}

// View renders the progress block.
func (p *Progress) View() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render("epoch "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d/%d", p.done, p.epochs)))
	b.WriteString(" ")
	b.WriteString(p.bar.ViewAs(p.Fraction()))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(FormatDuration(int64(p.now().Sub(p.started).Seconds()))))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("train loss "))
	b.WriteString(valueStyle.Render(FormatLoss(p.last.TrainLoss)))
	b.WriteString(labelStyle.Render("  test loss "))
	b.WriteString(valueStyle.Render(FormatLoss(p.last.TestLoss)))
	b.WriteString(labelStyle.Render("  top1 "))
	b.WriteString(valueStyle.Render(FormatAccuracy(p.last.Top1)))
	b.WriteString(labelStyle.Render("  top5 "))
	b.WriteString(valueStyle.Render(FormatAccuracy(p.last.Top5)))
	b.WriteString(labelStyle.Render("  eval "))
	b.WriteString(valueStyle.Render(FormatSeconds(p.last.TestingTime)))
	b.WriteString("\n")

	b.WriteString(createSparkline(p.top1))
	return b.String()
}

func appendHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}
