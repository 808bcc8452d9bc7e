package logparse

// Metrics maps a metric name to its captured text. Absent names are missing.
type Metrics map[string]string

// ExtractMetrics applies each pattern to content and keeps the first match.
// Patterns written as literals are compiled on use; one that does not pass
// NewPattern is ignored and its metric is missing. NewParser rejects such
// patterns up front.
func ExtractMetrics(content string, patterns Patterns) Metrics {
	m := make(Metrics, len(patterns))
	for _, p := range patterns {
		re := p.re
		if re == nil {
			// Pattern built as a literal; compile on use.
			compiled, err := NewPattern(p.Name, p.Expr)
			if err != nil {
				continue
			}
			re = compiled.re
		}
		if sub := re.FindStringSubmatch(content); sub != nil {
			m[p.Name] = sub[1]
		}
	}
	return m
}
