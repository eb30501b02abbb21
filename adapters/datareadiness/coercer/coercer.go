package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trialstats/domain/trial"
)

// TypeCoercer turns raw cells into typed trial values with deterministic rules
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold" yaml:"numeric_threshold"` // share of present cells that must parse as numbers
	BooleanThreshold float64  `json:"boolean_threshold" yaml:"boolean_threshold"` // share of present cells that must parse as booleans
	MissingTokens    []string `json:"missing_tokens" yaml:"missing_tokens"`       // cells read as missing
	TrimSpace        bool     `json:"trim_space" yaml:"trim_space"`
}

// DefaultCoercionConfig types a column only when every present cell agrees,
// and reads the usual spreadsheet null spellings as missing.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		BooleanThreshold: 1.0,
		MissingTokens:    []string{"NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "<NA>", "#N/A"},
		TrimSpace:        true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// CoerceValue converts a single driver or decoder value on its own, without
// looking at the rest of its column.
func (c *TypeCoercer) CoerceValue(rawValue interface{}) trial.Value {
	switch v := rawValue.(type) {
	case nil:
		return trial.Missing()
	case bool:
		return trial.Bool(v)
	case int:
		return trial.Int(v)
	case int32:
		return trial.Number(float64(v))
	case int64:
		return trial.Number(float64(v))
	case float32:
		return c.finite(float64(v))
	case float64:
		return c.finite(v)
	case time.Time:
		return trial.Text(v.UTC().Format(time.RFC3339))
	case []byte:
		return c.CoerceString(string(v))
	case string:
		return c.CoerceString(v)
	default:
		return c.CoerceString(fmt.Sprintf("%v", v))
	}
}

// CoerceString types one text cell: number first, then boolean, else string.
// The source text is kept as the value's raw form.
func (c *TypeCoercer) CoerceString(s string) trial.Value {
	s = c.clean(s)
	if c.isMissing(s) {
		return trial.Missing()
	}
	if v, ok := c.tryParseNumeric(s); ok {
		return v
	}
	if v, ok := c.tryParseBoolean(s); ok {
		return v
	}
	return trial.Text(s)
}

// CoerceColumn types a whole column at once. The column's kind is chosen from
// AnalyzeTypeDistribution; cells that do not fit that kind stay strings. A
// column that does not reach any threshold is read as strings throughout, so
// "5" and "knn" in one column are both labels.
func (c *TypeCoercer) CoerceColumn(raw []string) []trial.Value {
	analysis := c.AnalyzeTypeDistribution(raw)
	out := make([]trial.Value, len(raw))
	for i, s := range raw {
		s = c.clean(s)
		if c.isMissing(s) {
			out[i] = trial.Missing()
			continue
		}
		var (
			v  trial.Value
			ok bool
		)
		switch analysis.RecommendedKind {
		case trial.KindNumber:
			v, ok = c.tryParseNumeric(s)
		case trial.KindBool:
			v, ok = c.tryParseBoolean(s)
		}
		if !ok {
			v = trial.Text(s)
		}
		out[i] = v
	}
	return out
}

// CoerceTable builds a typed table from a header and string rows. Short rows
// are padded with missing cells.
func (c *TypeCoercer) CoerceTable(headers []string, rows [][]string) (*trial.Table, error) {
	columns := make([][]trial.Value, len(headers))
	for j := range headers {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		columns[j] = c.CoerceColumn(raw)
	}

	table := trial.NewTable(headers)
	if table.Width() != len(headers) {
		return nil, fmt.Errorf("duplicate column names in header %v", headers)
	}
	for i := range rows {
		values := make([]trial.Value, len(headers))
		for j := range headers {
			values[j] = columns[j][i]
		}
		if err := table.Append(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return table, nil
}

// AnalyzeTypeDistribution analyzes a sample to determine the best type coercion strategy
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	for _, val := range values {
		val = c.clean(val)
		if c.isMissing(val) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(val); ok {
			analysis.NumericCount++
		}
		if _, ok := c.tryParseBoolean(val); ok {
			analysis.BooleanCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedKind = c.determineRecommendedKind(analysis)

	return analysis
}

// tryParseNumeric accepts plain decimal and scientific notation. Infinity and
// NaN spellings are rejected.
func (c *TypeCoercer) tryParseNumeric(s string) (trial.Value, bool) {
	if s == "" {
		return trial.Value{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return trial.Value{}, false
	}
	return trial.Number(f).WithRaw(s), true
}

// tryParseBoolean accepts true and false in any letter case.
func (c *TypeCoercer) tryParseBoolean(s string) (trial.Value, bool) {
	switch strings.ToLower(s) {
	case "true":
		return trial.Bool(true).WithRaw(s), true
	case "false":
		return trial.Bool(false).WithRaw(s), true
	}
	return trial.Value{}, false
}

func (c *TypeCoercer) finite(f float64) trial.Value {
	if math.IsInf(f, 0) {
		return trial.Missing()
	}
	return trial.Number(f)
}

func (c *TypeCoercer) clean(s string) string {
	if c.config.TrimSpace {
		return strings.TrimSpace(s)
	}
	return s
}

func (c *TypeCoercer) isMissing(s string) bool {
	if s == "" {
		return true
	}
	for _, token := range c.config.MissingTokens {
		if s == token {
			return true
		}
	}
	return false
}

// determineRecommendedKind chooses the best kind based on analysis
func (c *TypeCoercer) determineRecommendedKind(analysis TypeAnalysis) trial.Kind {
	if analysis.ValidCount == 0 {
		return trial.KindMissing
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return trial.KindNumber
	}
	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return trial.KindBool
	}
	return trial.KindString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int        `json:"total_count"`
	ValidCount      int        `json:"valid_count"`
	NumericCount    int        `json:"numeric_count"`
	BooleanCount    int        `json:"boolean_count"`
	NumericRatio    float64    `json:"numeric_ratio"`
	BooleanRatio    float64    `json:"boolean_ratio"`
	RecommendedKind trial.Kind `json:"recommended_kind"`
}
