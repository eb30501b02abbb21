package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"trialstats/domain/core"
	"trialstats/domain/trial"
	"trialstats/internal"
	"trialstats/internal/aggregation"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/ports"

	"golang.org/x/sync/errgroup"
)

// AnalysisService loads trial tables and runs analysis definitions over them
type AnalysisService struct {
	resolver       ports.LoaderResolver
	history        ports.RunHistory
	maxConcurrency int
	logger         *internal.Logger
	now            func() time.Time
}

// PivotResult is one named pivot of a report.
type PivotResult struct {
	Name   string              `json:"name"`
	Source string              `json:"source"`
	Matrix *aggregation.Matrix `json:"matrix"`
}

// Report is everything one analysis run produced. When the input could not
// be loaded, Loaded is false and every table is nil.
type Report struct {
	RunID          core.RunID    `json:"run_id"`
	Analysis       string        `json:"analysis"`
	DefinitionHash core.Hash     `json:"definition_hash"`
	Source         string        `json:"source"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`

	Loaded     bool   `json:"loaded"`
	LoadError  string `json:"load_error,omitempty"`
	TrialCount int    `json:"trial_count"`
	Unmatched  int    `json:"unmatched_outcomes"`

	Schema       *trial.Schema `json:"schema,omitempty"`
	Groups       *trial.Table  `json:"groups,omitempty"`
	Summary      *trial.Table  `json:"summary,omitempty"`
	Pruned       *trial.Table  `json:"pruned,omitempty"`
	Weighted     *trial.Table  `json:"weighted,omitempty"`
	Measurements *trial.Table  `json:"measurements_per_room,omitempty"`
	Pivots       []PivotResult `json:"pivots,omitempty"`
}

// NamedTable pairs a report table with its export name.
type NamedTable struct {
	Name  string
	Table *trial.Table
}

// Tables lists the report's tables in export order, skipping absent ones.
func (r *Report) Tables() []NamedTable {
	var out []NamedTable
	add := func(name string, t *trial.Table) {
		if t != nil {
			out = append(out, NamedTable{Name: name, Table: t})
		}
	}
	add("summary", r.Summary)
	add("pruned", r.Pruned)
	add("groups", r.Groups)
	add("weighted", r.Weighted)
	add("measurements", r.Measurements)
	for _, p := range r.Pivots {
		add(p.Name, p.Matrix.ToTable())
	}
	return out
}

// NewAnalysisService creates the service. history may be nil. A
// maxConcurrency below one runs analyses one at a time.
func NewAnalysisService(resolver ports.LoaderResolver, history ports.RunHistory, maxConcurrency int, logger *internal.Logger) *AnalysisService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		resolver:       resolver,
		history:        history,
		maxConcurrency: maxConcurrency,
		logger:         logger,
		now:            time.Now,
	}
}

// Run resolves the analysis' input and runs it.
func (s *AnalysisService) Run(ctx context.Context, a config.Analysis) (*Report, error) {
	loader, err := s.resolver.Resolve(a.Input, a.Query)
	if err != nil {
		analysisRunsTotal.WithLabelValues(statusError).Inc()
		return nil, errors.Wrapf(err, "analysis %s", a.Name)
	}
	return s.RunWithLoader(ctx, a, loader)
}

// RunAll runs independent analyses concurrently, bounded by the configured
// concurrency. Reports come back in definition order; the first error
// cancels the remaining runs.
func (s *AnalysisService) RunAll(ctx context.Context, analyses []config.Analysis) ([]*Report, error) {
	reports := make([]*Report, len(analyses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, a := range analyses {
		g.Go(func() error {
			report, err := s.Run(gctx, a)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// RunWithLoader runs one analysis over the table loader produces.
//
// A load failure is logged and yields a report with Loaded false and no
// error. Schema and data errors of the pipeline are returned.
func (s *AnalysisService) RunWithLoader(ctx context.Context, a config.Analysis, loader ports.TableLoader) (*Report, error) {
	started := s.now()
	report := &Report{
		RunID:          core.NewRunID(),
		Analysis:       a.Name,
		DefinitionHash: a.Hash(),
		Source:         loader.Source(),
		StartedAt:      started,
	}
	defer func() {
		report.Duration = s.now().Sub(started)
		analysisDuration.Observe(report.Duration.Seconds())
	}()

	cfg, err := a.AggregationConfig()
	if err != nil {
		analysisRunsTotal.WithLabelValues(statusError).Inc()
		return nil, err
	}

	s.logger.Info("[AnalysisService] Running %s (run %s, definition %s) on %s", a.Name, report.RunID, report.DefinitionHash.Short(), report.Source)

	table, err := loader.Load(ctx)
	if err != nil {
		s.logger.Error("[AnalysisService] %s: %v", a.Name, err)
		table = nil
		report.LoadError = err.Error()
	}

	table, err = prepare(table, a)
	if err != nil {
		analysisRunsTotal.WithLabelValues(statusError).Inc()
		return nil, classify(a.Name, err)
	}

	result, err := aggregation.Run(table, cfg)
	if err != nil {
		analysisRunsTotal.WithLabelValues(statusError).Inc()
		return nil, classify(a.Name, err)
	}
	if result == nil {
		analysisRunsTotal.WithLabelValues(statusNoData).Inc()
		s.logger.Warn("[AnalysisService] %s: no table loaded, nothing to aggregate", a.Name)
		return report, nil
	}

	report.Loaded = true
	report.TrialCount = table.Len()
	report.Schema = &result.Schema
	report.Groups = result.Groups.Table
	report.Unmatched = result.Groups.Unmatched
	report.Summary = result.Summary.Drop(a.Drop...)
	report.Pruned = report.Summary
	if a.ShouldPrune() {
		report.Pruned = aggregation.PruneConstantColumns(report.Summary)
	}
	trialsProcessedTotal.Add(float64(report.TrialCount))
	unmatchedOutcomesTotal.Add(float64(report.Unmatched))
	if report.Unmatched > 0 {
		s.logger.Warn("[AnalysisService] %s: %d outcome labels matched no category", a.Name, report.Unmatched)
	}

	if err := s.derive(report, table, a, cfg); err != nil {
		analysisRunsTotal.WithLabelValues(statusError).Inc()
		return nil, classify(a.Name, err)
	}

	s.record(ctx, report)
	analysisRunsTotal.WithLabelValues(statusOK).Inc()
	s.logger.Info("[AnalysisService] %s: %d trials, %d groups, %d summary rows", a.Name, report.TrialCount, report.Groups.Len(), report.Summary.Len())
	return report, nil
}

// prepare applies the row filters and missing-value fills of an analysis.
func prepare(table *trial.Table, a config.Analysis) (*trial.Table, error) {
	if table == nil {
		return nil, nil
	}
	for _, f := range a.Filters {
		if !table.Has(f.Column) {
			return nil, core.NewMissingColumnError("filter", f.Column)
		}
		want := config.Literal(f.Equals)
		table = table.Filter(func(row trial.Row) bool {
			v := row.Get(f.Column)
			return v.Equal(want) || (!v.IsMissing() && v.Raw() == f.Equals)
		})
	}
	for column, fill := range a.FillMissing {
		filled, err := table.FillMissing(column, config.Literal(fill))
		if err != nil {
			return nil, err
		}
		table = filled
	}
	return table, nil
}

// derive adds the optional weighted summary, measurement counts and pivots.
func (s *AnalysisService) derive(report *Report, table *trial.Table, a config.Analysis, cfg aggregation.Config) error {
	if a.Weighted != nil {
		rate, weight := a.Weighted.WeightedColumns(cfg)
		weighted, err := aggregation.WeightedSummary(report.Groups, a.Weighted.Group, rate, weight)
		if err != nil {
			return fmt.Errorf("weighted summary: %w", err)
		}
		report.Weighted = weighted
	}

	if a.MeasurementsPerRoom {
		counts, err := aggregation.MeasurementsPerRoom(table, cfg)
		if err != nil {
			return fmt.Errorf("measurements per room: %w", err)
		}
		report.Measurements = counts
	}

	for _, p := range a.Pivots {
		source := report.Summary
		if p.SourceOrDefault() == config.SourceGroups {
			source = report.Groups
		}
		var combined *aggregation.Matrix
		for _, spec := range p.Specs() {
			m, err := aggregation.BuildPivot(source, spec)
			if err != nil {
				return fmt.Errorf("pivot %s: %w", p.Name, err)
			}
			if combined == nil {
				combined = m
				continue
			}
			if combined, err = aggregation.SumPivots(combined, m); err != nil {
				return fmt.Errorf("pivot %s: %w", p.Name, err)
			}
		}
		report.Pivots = append(report.Pivots, PivotResult{Name: p.Name, Source: p.SourceOrDefault(), Matrix: combined})
	}
	return nil
}

// record stores the run when a history is configured. Failures are logged only.
func (s *AnalysisService) record(ctx context.Context, report *Report) {
	if s.history == nil {
		return
	}
	rec, err := ports.NewRunRecord(report.RunID, report.Analysis, report.DefinitionHash, report.Source,
		report.TrialCount, report.Groups.Len(), report.Summary, report.StartedAt)
	if err == nil {
		err = s.history.Save(ctx, rec)
	}
	if err != nil {
		s.logger.Warn("[AnalysisService] %s: run %s not recorded: %v", report.Analysis, report.RunID, err)
	}
}

// classify attaches the error code matching a pipeline failure.
func classify(analysis string, err error) error {
	switch {
	case core.IsMissingColumnError(err):
		return errors.SchemaMismatch(analysis, err)
	case stderrors.Is(err, core.ErrInvalidOutcome),
		stderrors.Is(err, core.ErrInvalidWeight),
		stderrors.Is(err, core.ErrNonNumeric):
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("analysis %s: %w", analysis, err))
	default:
		return errors.Wrapf(err, "analysis %s", analysis)
	}
}
