package trial

import (
	"fmt"
	"strings"

	"trialstats/domain/core"
)

// Outcome is the verdict of a single trial.
type Outcome int

const (
	// OutcomeUnmatched marks a ternary label outside the taxonomy's label set.
	// It contributes to no rate.
	OutcomeUnmatched Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeTrue
	OutcomeFalse
	OutcomeNotFalse
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeTrue:
		return "true"
	case OutcomeFalse:
		return "false"
	case OutcomeNotFalse:
		return "not_false"
	default:
		return "unmatched"
	}
}

// TaxonomyKind selects how the outcome column is interpreted.
type TaxonomyKind string

const (
	TaxonomyBinary  TaxonomyKind = "binary"
	TaxonomyTernary TaxonomyKind = "ternary"
)

// Category ties an outcome to the label that encodes it and the rate column
// that reports it. An empty RateColumn means the category is not reported.
type Category struct {
	Outcome    Outcome
	Label      string
	RateColumn string
}

// Taxonomy is the closed set of outcome categories for one analysis.
type Taxonomy struct {
	Kind       TaxonomyKind
	Categories []Category
}

// Rate column names produced by the built-in taxonomies.
const (
	RateCorrect  = "correct_percent"
	RateTrue     = "True_percent"
	RateFalse    = "False_percent"
	RateNotFalse = "Not_False_percent"
)

// BinaryTaxonomy reads the outcome as a boolean and reports correct_percent.
func BinaryTaxonomy() Taxonomy {
	return Taxonomy{
		Kind: TaxonomyBinary,
		Categories: []Category{
			{Outcome: OutcomeCorrect, Label: "True", RateColumn: RateCorrect},
			{Outcome: OutcomeIncorrect, Label: "False"},
		},
	}
}

// TernaryTaxonomy matches the labels "True", "False" and "Not False" exactly.
func TernaryTaxonomy() Taxonomy {
	return Taxonomy{
		Kind: TaxonomyTernary,
		Categories: []Category{
			{Outcome: OutcomeTrue, Label: "True", RateColumn: RateTrue},
			{Outcome: OutcomeFalse, Label: "False", RateColumn: RateFalse},
			{Outcome: OutcomeNotFalse, Label: "Not False", RateColumn: RateNotFalse},
		},
	}
}

// ParseTaxonomy resolves a taxonomy by name.
func ParseTaxonomy(name string) (Taxonomy, error) {
	switch TaxonomyKind(strings.ToLower(strings.TrimSpace(name))) {
	case TaxonomyBinary, "":
		return BinaryTaxonomy(), nil
	case TaxonomyTernary:
		return TernaryTaxonomy(), nil
	default:
		return Taxonomy{}, fmt.Errorf("unknown taxonomy %q", name)
	}
}

// RateColumns lists the reported rate columns in category order.
func (t Taxonomy) RateColumns() []string {
	var cols []string
	for _, c := range t.Categories {
		if c.RateColumn != "" {
			cols = append(cols, c.RateColumn)
		}
	}
	return cols
}

// RateColumn returns the rate column reporting o, or "".
func (t Taxonomy) RateColumn(o Outcome) string {
	for _, c := range t.Categories {
		if c.Outcome == o {
			return c.RateColumn
		}
	}
	return ""
}

// Classify maps one outcome cell to its category.
//
// Binary cells must be booleans (or the numbers 1 and 0); anything else is
// ErrInvalidOutcome. Ternary cells are matched case-sensitively on their raw
// text; a label outside the set yields OutcomeUnmatched without error.
func (t Taxonomy) Classify(v Value) (Outcome, error) {
	switch t.Kind {
	case TaxonomyBinary:
		if b, ok := v.BoolValue(); ok {
			if b {
				return OutcomeCorrect, nil
			}
			return OutcomeIncorrect, nil
		}
		if f, ok := v.Float(); ok {
			switch f {
			case 1:
				return OutcomeCorrect, nil
			case 0:
				return OutcomeIncorrect, nil
			}
		}
		return OutcomeUnmatched, core.ErrInvalidOutcome
	case TaxonomyTernary:
		raw := v.Raw()
		for _, c := range t.Categories {
			if c.Label == raw {
				return c.Outcome, nil
			}
		}
		return OutcomeUnmatched, nil
	default:
		return OutcomeUnmatched, fmt.Errorf("unknown taxonomy %q", t.Kind)
	}
}
