package models

// Metrics holds the structural measurements of one leaf unit. A Metrics
// value is built once by the extractor; the only later change is the
// attachment of a Duplication record, done by copying the value rather than
// mutating it in place so concurrent matchers never alias shared state.
type Metrics struct {
	Lines                int          `json:"lines"`
	Statements           int          `json:"statements"`
	Expressions          int          `json:"expressions"`
	ExpressionStatements int          `json:"expression_statements"`
	CyclomaticComplexity int          `json:"cyclomatic_complexity"`
	Parameters           int          `json:"parameters"`
	Duplication          *Duplication `json:"duplication"`
}

// WithDuplication returns a copy of the metrics with the duplication record
// set.
func (m Metrics) WithDuplication(d *Duplication) Metrics {
	m.Duplication = d
	return m
}

// Duplication records a unit's single best approximate match elsewhere in
// the corpus. Score is rounded to three decimals; Other names the partner by
// qualified name, falling back to its plain name.
type Duplication struct {
	Score      float64 `json:"score"`
	Other      string  `json:"other"`
	LinesOther int     `json:"lines_other"`
}
