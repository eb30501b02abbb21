package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"trialstats/adapters/datareadiness/coercer"
	"trialstats/domain/core"
	"trialstats/domain/trial"
	"trialstats/internal/aggregation"
	"trialstats/internal/errors"

	"gopkg.in/yaml.v3"
)

// AnalysesFile is the YAML document listing every analysis to run.
type AnalysesFile struct {
	Analyses []Analysis `yaml:"analyses" validate:"required,min=1,dive"`
}

// Analysis is one named run of the pipeline over one input.
type Analysis struct {
	Name string `yaml:"name" validate:"required"`
	// Input is a CSV or XLSX path; empty means INPUT_FILE. Query selects the
	// PostgreSQL source instead.
	Input    string      `yaml:"input,omitempty"`
	Query    string      `yaml:"query,omitempty"`
	Taxonomy string      `yaml:"taxonomy,omitempty" validate:"omitempty,oneof=binary ternary"`
	Columns  ColumnNames `yaml:"columns,omitempty"`

	Exclude     []string          `yaml:"exclude,omitempty"`
	RollupExtra []string          `yaml:"rollup_extra,omitempty"`
	Filters     []Filter          `yaml:"filters,omitempty" validate:"dive"`
	FillMissing map[string]string `yaml:"fill_missing,omitempty"`
	Drop        []string          `yaml:"drop,omitempty"`
	Prune       *bool             `yaml:"prune,omitempty"`

	Weighted            *WeightedDef `yaml:"weighted,omitempty"`
	Pivots              []PivotDef   `yaml:"pivots,omitempty" validate:"dive"`
	MeasurementsPerRoom bool         `yaml:"measurements_per_room,omitempty"`
}

// ColumnNames overrides the default column roles.
type ColumnNames struct {
	Room        string `yaml:"room,omitempty"`
	Outcome     string `yaml:"outcome,omitempty"`
	Measurement string `yaml:"measurement,omitempty"`
	Distance    string `yaml:"distance,omitempty"`
	Duration    string `yaml:"duration,omitempty"`
	Weight      string `yaml:"weight,omitempty"`
}

// Filter keeps the rows whose column equals a literal.
type Filter struct {
	Column string `yaml:"column" validate:"required"`
	Equals string `yaml:"equals"`
}

// WeightedDef asks for a trial-weighted summary over one grouping column.
type WeightedDef struct {
	Group  string `yaml:"group" validate:"required"`
	Rate   string `yaml:"rate,omitempty"`
	Weight string `yaml:"weight,omitempty"`
}

// PivotDef describes a pivot. With several values the pivots of each value
// are summed cell by cell.
type PivotDef struct {
	Name   string   `yaml:"name" validate:"required"`
	Source string   `yaml:"source,omitempty" validate:"omitempty,oneof=summary groups"`
	Row    string   `yaml:"row" validate:"required"`
	Column string   `yaml:"column" validate:"required"`
	Values []string `yaml:"values" validate:"required,min=1"`

	RowOrder         string   `yaml:"row_order,omitempty" validate:"omitempty,oneof=asc desc explicit"`
	ColumnOrder      string   `yaml:"column_order,omitempty" validate:"omitempty,oneof=asc desc explicit"`
	RowCategories    []string `yaml:"row_categories,omitempty"`
	ColumnCategories []string `yaml:"column_categories,omitempty"`
}

// Pivot sources.
const (
	SourceSummary = "summary"
	SourceGroups  = "groups"
)

// literals types filter values, fill values and explicit categories. It
// knows no missing tokens, so "None" stays a label.
var literals = coercer.NewTypeCoercer(coercer.CoercionConfig{NumericThreshold: 1, BooleanThreshold: 1, TrimSpace: true})

// Literal types a value written in the analyses file.
func Literal(s string) trial.Value {
	return literals.CoerceString(s)
}

// LoadAnalyses reads and validates an analyses file.
func LoadAnalyses(path string) (*AnalysesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("cannot read analyses file %s: %v", path, err))
	}
	file, err := ParseAnalyses(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid analyses file %s", path)
	}
	return file, nil
}

// ParseAnalyses decodes YAML, rejecting unknown keys, and validates it.
func ParseAnalyses(data []byte) (*AnalysesFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file AnalysesFile
	if err := dec.Decode(&file); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("cannot parse analyses: %v", err))
	}
	if err := validate.Struct(&file); err != nil {
		return nil, errors.ConfigInvalid(describeValidation(err))
	}

	seen := make(map[string]bool, len(file.Analyses))
	for _, a := range file.Analyses {
		if seen[a.Name] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("duplicate analysis name %q", a.Name))
		}
		seen[a.Name] = true
		if err := a.check(); err != nil {
			return nil, err
		}
	}
	return &file, nil
}

// DefaultAnalysis runs the plain pipeline over input.
func DefaultAnalysis(input string) Analysis {
	return Analysis{Name: "default", Input: input}
}

// Find returns the analysis with the given name.
func (f *AnalysesFile) Find(name string) (Analysis, bool) {
	for _, a := range f.Analyses {
		if a.Name == name {
			return a, true
		}
	}
	return Analysis{}, false
}

func (a Analysis) check() error {
	if a.Input != "" && a.Query != "" {
		return errors.ConfigInvalid(fmt.Sprintf("analysis %q: input and query are exclusive", a.Name))
	}
	for _, p := range a.Pivots {
		if p.Row == p.Column {
			return errors.ConfigInvalid(fmt.Sprintf("analysis %q pivot %q: row and column must differ", a.Name, p.Name))
		}
	}
	return nil
}

// ShouldPrune reports whether constant columns are dropped; default true.
func (a Analysis) ShouldPrune() bool {
	return a.Prune == nil || *a.Prune
}

// AggregationConfig builds the pipeline configuration: the defaults with the
// analysis' column names, taxonomy, exclusions and rollup columns applied.
func (a Analysis) AggregationConfig() (aggregation.Config, error) {
	cfg := aggregation.DefaultConfig()

	taxonomy, err := trial.ParseTaxonomy(a.Taxonomy)
	if err != nil {
		return cfg, errors.ConfigInvalid(fmt.Sprintf("analysis %q: %v", a.Name, err))
	}
	cfg.Taxonomy = taxonomy

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.RoomColumn, a.Columns.Room)
	override(&cfg.OutcomeColumn, a.Columns.Outcome)
	override(&cfg.MeasurementColumn, a.Columns.Measurement)
	override(&cfg.DistanceColumn, a.Columns.Distance)
	override(&cfg.DurationColumn, a.Columns.Duration)
	override(&cfg.WeightColumn, a.Columns.Weight)

	cfg.ExcludedColumns = append(append([]string{}, cfg.ExcludedColumns...), a.Exclude...)
	cfg.RollupExtra = append([]string{}, a.RollupExtra...)
	return cfg, nil
}

// WeightedColumns resolves the rate and weight columns of the weighted
// summary against the taxonomy's first rate column and cfg's weight column.
func (w WeightedDef) WeightedColumns(cfg aggregation.Config) (rate, weight string) {
	rate, weight = w.Rate, w.Weight
	if rate == "" {
		if cols := cfg.Taxonomy.RateColumns(); len(cols) > 0 {
			rate = cols[0]
		}
	}
	if weight == "" {
		weight = cfg.WeightColumn
	}
	return rate, weight
}

// Specs returns one pivot spec per value column.
func (p PivotDef) Specs() []aggregation.PivotSpec {
	specs := make([]aggregation.PivotSpec, len(p.Values))
	for i, v := range p.Values {
		specs[i] = aggregation.PivotSpec{
			Row:         p.Row,
			Column:      p.Column,
			Value:       v,
			RowOrder:    axisOrder(p.RowOrder, p.RowCategories),
			ColumnOrder: axisOrder(p.ColumnOrder, p.ColumnCategories),
		}
	}
	return specs
}

// SourceOrDefault returns the table the pivot reads from.
func (p PivotDef) SourceOrDefault() string {
	if p.Source == "" {
		return SourceSummary
	}
	return p.Source
}

func axisOrder(direction string, categories []string) aggregation.AxisOrder {
	order := aggregation.AxisOrder{Direction: aggregation.Direction(direction)}
	if len(categories) > 0 && direction == "" {
		order.Direction = aggregation.Explicit
	}
	for _, c := range categories {
		order.Categories = append(order.Categories, Literal(c))
	}
	return order
}

// Hash fingerprints the definition so reports of the same analysis can be
// matched across runs.
func (a Analysis) Hash() core.Hash {
	weighted := "none"
	if a.Weighted != nil {
		weighted = fmt.Sprintf("%+v", *a.Weighted)
	}
	return core.ComputeDefinitionHash(a.Name, map[string]interface{}{
		"input":                 a.Input,
		"query":                 a.Query,
		"taxonomy":              strings.ToLower(a.Taxonomy),
		"columns":               fmt.Sprintf("%+v", a.Columns),
		"exclude":               a.Exclude,
		"rollup_extra":          a.RollupExtra,
		"filters":               fmt.Sprintf("%+v", a.Filters),
		"fill_missing":          a.FillMissing,
		"drop":                  a.Drop,
		"prune":                 a.ShouldPrune(),
		"weighted":              weighted,
		"pivots":                fmt.Sprintf("%+v", a.Pivots),
		"measurements_per_room": a.MeasurementsPerRoom,
	})
}
