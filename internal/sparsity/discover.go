package sparsity

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Defaults for Discover.
const (
	DefaultGlob       = "singleshot/*-vgg16-cifar10-singleshot-lottery-c0.5-*"
	DefaultRecordFile = "compression.csv"
)

// Discover returns the record files matching <baseDir>/<glob>/<recordFile>,
// sorted lexically.
func Discover(baseDir, glob, recordFile string) ([]string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	if recordFile == "" {
		recordFile = DefaultRecordFile
	}

	pattern := filepath.Join(baseDir, glob, recordFile)
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}
