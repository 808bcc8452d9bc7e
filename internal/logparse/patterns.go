package logparse

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

var (
	// ErrInvalidTOML indicates a pattern file could not be decoded.
	ErrInvalidTOML = errors.New("invalid TOML")

	// ErrInvalidPattern indicates a pattern that does not compile or does not
	// have exactly one capture group.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Metric names produced by the default patterns.
const (
	MetricFinalTop1Accuracy = "final_top1_accuracy"
	MetricPostTrainingTime  = "post_training_time"
	MetricFlopSparsity      = "flop_sparsity"
)

// Pattern extracts one metric from log content. Expr has exactly one capture
// group; the captured text is the metric value.
type Pattern struct {
	Name string `toml:"name"`
	Expr string `toml:"expr"`

	re *regexp.Regexp
}

// Patterns is an ordered list of content patterns. Order determines the
// order of metric columns in the output.
type Patterns []Pattern

// NewPattern compiles expr and checks it has a single capture group.
func NewPattern(name, expr string) (Pattern, error) {
	if name == "" {
		return Pattern{}, fmt.Errorf("%w: empty name for %q", ErrInvalidPattern, expr)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, name, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return Pattern{}, fmt.Errorf("%w: %s has %d capture groups, want 1", ErrInvalidPattern, name, n)
	}
	return Pattern{Name: name, Expr: expr, re: re}, nil
}

func mustPattern(name, expr string) Pattern {
	p, err := NewPattern(name, expr)
	if err != nil {
		panic(err)
	}
	return p
}

var defaultPatterns = Patterns{
	// Final <epoch> <train loss> <test loss> <top1> ...
	mustPattern(MetricFinalTop1Accuracy, `Final\s+\d+\s+[\d\.]+\s+(?:[\d\.]+(?:e[+-]\d+)?)\s+([\d\.]+)`),
	mustPattern(MetricPostTrainingTime, `Post-training time: ([\d\.]+) seconds`),
	mustPattern(MetricFlopSparsity, `FLOP Sparsity: \d+/\d+ \(([\d\.]+)\)`),
}

// DefaultPatterns returns the built-in content patterns.
func DefaultPatterns() Patterns {
	return append(Patterns(nil), defaultPatterns...)
}

// Names returns the pattern names in order.
func (ps Patterns) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Merge returns ps with each of extra either replacing the pattern of the
// same name in place or appended at the end.
func (ps Patterns) Merge(extra Patterns) Patterns {
	out := append(Patterns(nil), ps...)
	for _, e := range extra {
		replaced := false
		for i := range out {
			if out[i].Name == e.Name {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

// LoadPatterns reads a TOML pattern file and merges it over the defaults.
// An empty path returns the defaults.
//
// The file holds a list of tables:
//
//	[[pattern]]
//	name = "best_top5_accuracy"
//	expr = 'Best top5: ([\d\.]+)'
func LoadPatterns(path string) (Patterns, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}

	var file struct {
		Pattern []Pattern `toml:"pattern"`
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("pattern file: %w", err)
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	loaded := make(Patterns, 0, len(file.Pattern))
	for _, p := range file.Pattern {
		compiled, err := NewPattern(p.Name, p.Expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		loaded = append(loaded, compiled)
	}

	return DefaultPatterns().Merge(loaded), nil
}
