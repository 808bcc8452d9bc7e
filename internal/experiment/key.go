// Package experiment derives experiment keys from log file names and
// result directory names.
//
// Log files follow the convention
//
//	<method>-<model>-<data>-<module>-<mode>-c<ratio>-pre<epochs>-post<epochs>.log
//
// for example snip-vgg16-cifar10-singleshot-lottery-c0.1-pre0-post100.log.
package experiment

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrTooFewFields is returned when a file name has fewer than the five
// positional fields.
var ErrTooFewFields = errors.New("too few dash-separated fields")

// Column names, in output order.
const (
	ColCompression = "compression"
	ColModel       = "model"
	ColData        = "data"
	ColMethod      = "method"
	ColModule      = "module"
	ColMode        = "mode"
	ColPre         = "pre"
	ColPost        = "post"
)

// Columns lists the key columns in their canonical order.
var Columns = []string{ColCompression, ColModel, ColData, ColMethod, ColModule, ColMode, ColPre, ColPost}

const positionalFields = 5

var (
	compressionTag = regexp.MustCompile(`c([\d\.]+)`)
	preTag         = regexp.MustCompile(`pre(\d+)`)
	postTag        = regexp.MustCompile(`post(\d+)`)
)

// Key identifies one experiment configuration. Empty fields are missing.
type Key struct {
	Method      string
	Model       string
	Data        string
	Module      string
	Mode        string
	Compression string
	Pre         string
	Post        string
}

// ParseFilename builds a Key from the base name of path.
//
// The first five dash-separated fields are positional. Compression, pre and
// post epochs are found by tag anywhere in the base name; the first match
// wins and a missing tag leaves the field empty.
func ParseFilename(path string) (Key, error) {
	base := filepath.Base(path)
	parts := strings.Split(base, "-")
	if len(parts) < positionalFields {
		return Key{}, fmt.Errorf("%s: %w (got %d, want >= %d)", base, ErrTooFewFields, len(parts), positionalFields)
	}

	return Key{
		Method:      parts[0],
		Model:       parts[1],
		Data:        parts[2],
		Module:      parts[3],
		Mode:        parts[4],
		Compression: firstGroup(compressionTag, base),
		Pre:         firstGroup(preTag, base),
		Post:        firstGroup(postTag, base),
	}, nil
}

// NameFromDir returns the experiment name of a results directory: the text
// of its base name before the first dash.
func NameFromDir(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	name, _, _ := strings.Cut(base, "-")
	return name
}

// Fields returns the key as column name to value. Missing fields are omitted.
func (k Key) Fields() map[string]string {
	all := map[string]string{
		ColCompression: k.Compression,
		ColModel:       k.Model,
		ColData:        k.Data,
		ColMethod:      k.Method,
		ColModule:      k.Module,
		ColMode:        k.Mode,
		ColPre:         k.Pre,
		ColPost:        k.Post,
	}
	for col, v := range all {
		if v == "" {
			delete(all, col)
		}
	}
	return all
}

// String renders the key back in file-name order.
func (k Key) String() string {
	parts := []string{k.Method, k.Model, k.Data, k.Module, k.Mode}
	if k.Compression != "" {
		parts = append(parts, "c"+k.Compression)
	}
	if k.Pre != "" {
		parts = append(parts, "pre"+k.Pre)
	}
	if k.Post != "" {
		parts = append(parts, "post"+k.Post)
	}
	return strings.Join(parts, "-")
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
