// Package analytics runs the spending analysis: it loads the users,
// purchases and products tables, drops incomplete records, joins the tables,
// derives each purchase's total and aggregates spending per category, both
// overall and for one age group, whose category shares are then ranked.
//
// An Engine carries everything a run needs (configuration, allocator, worker
// pool, logger and metrics) and produces a Report that the report package
// renders. No stage mutates its inputs.
package analytics

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/spendscope/internal/config"
	"github.com/paveg/spendscope/internal/dataframe"
	dferrors "github.com/paveg/spendscope/internal/errors"
	dfio "github.com/paveg/spendscope/internal/io"
	"github.com/paveg/spendscope/internal/monitoring"
	"github.com/paveg/spendscope/internal/parallel"
)

// Stage names used in logs, metrics and wrapped errors.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageEnrich    = "enrich"
	StageAggregate = "aggregate"
	StageAgeGroup  = "age_group"
	StageNormalize = "normalize"
	StageRank      = "rank"
)

// Engine executes the pipeline.
type Engine struct {
	cfg     config.Config
	mem     memory.Allocator
	logger  *slog.Logger
	metrics *monitoring.MetricsCollector
	runID   string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The run id is added to every record.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithAllocator sets the Arrow allocator used for loaded tables.
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Engine) { e.mem = mem }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// NewEngine validates cfg and returns an engine for it. Zero values in cfg
// are not defaulted here; callers start from config.NewConfig.
func NewEngine(cfg config.Config, opts ...Option) (*Engine, error) {
	resolved, warnings, err := config.NewConfigValidator().Validate(cfg)
	if err != nil {
		return nil, dferrors.NewInvalidInputError("NewEngine", err.Error())
	}

	e := &Engine{
		cfg:     resolved,
		mem:     memory.NewGoAllocator(),
		logger:  slog.Default(),
		metrics: monitoring.NewMetricsCollector(resolved.MetricsCollection),
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("run_id", e.runID)

	for _, w := range warnings {
		e.logger.Warn("configuration", "warning", w)
	}
	return e, nil
}

// RunID identifies this engine's run in logs.
func (e *Engine) RunID() string {
	return e.runID
}

// Config returns the resolved configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Metrics returns the engine's metrics collector.
func (e *Engine) Metrics() *monitoring.MetricsCollector {
	return e.metrics
}

// run holds the frames that exist only while Run executes.
type run struct {
	exec    *dataframe.ExecOptions
	cleaned []*dataframe.DataFrame
	joined  *dataframe.DataFrame
	young   *dataframe.DataFrame
}

func (r *run) release() {
	for _, df := range r.cleaned {
		if df != nil {
			df.Release()
		}
	}
	if r.joined != nil {
		r.joined.Release()
	}
	if r.young != nil {
		r.young.Release()
	}
}

// Run executes every stage in order and returns the resulting report. The
// first failing stage aborts the run; its error is wrapped with the stage
// name and keeps its kind.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	pool := parallel.NewWorkerPoolContext(ctx, e.cfg.WorkerPoolSize)
	defer pool.Close()

	r := &run{exec: &dataframe.ExecOptions{
		Pool:              pool,
		ParallelThreshold: e.cfg.ParallelThreshold,
		ChunkSize:         e.cfg.ChunkSize,
	}}
	defer r.release()

	rep := &Report{
		RunID:       e.runID,
		AgeMin:      e.cfg.AgeMin,
		AgeMax:      e.cfg.AgeMax,
		TopN:        e.cfg.TopN,
		PreviewRows: e.cfg.PreviewRows,
		SumColumn:   ColTotalSum,
		AgeSum:      AgeGroupSumColumn(e.cfg.AgeMin, e.cfg.AgeMax),
		ShareColumn: AgeGroupShareColumn(e.cfg.AgeMin, e.cfg.AgeMax),
	}

	e.logger.InfoContext(ctx, "run started",
		"workers", pool.Workers(), "age_min", e.cfg.AgeMin, "age_max", e.cfg.AgeMax)

	stages := []struct {
		name string
		fn   func(context.Context, *run, *Report) (int, error)
	}{
		{StageLoad, e.load},
		{StageClean, e.clean},
		{StageEnrich, e.enrich},
		{StageAggregate, e.aggregate},
		{StageAgeGroup, e.ageGroup},
		{StageNormalize, e.normalize},
		{StageRank, e.rank},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			rep.Release()
			return nil, dferrors.Wrap(s.name, err)
		}

		m, err := e.metrics.RecordOperation(s.name, func() (int, error) {
			return s.fn(ctx, r, rep)
		})
		if err != nil {
			rep.Release()
			e.logger.ErrorContext(ctx, "stage failed", "stage", s.name, "kind", dferrors.KindOf(err), "err", err)
			return nil, dferrors.Wrap(s.name, err)
		}
		e.logger.InfoContext(ctx, "stage complete",
			"stage", s.name, "rows", m.RowsOut, "duration", m.Duration)
	}

	if e.metrics.IsEnabled() {
		e.logger.DebugContext(ctx, "run metrics", "summary", e.metrics.GetSummary())
	}
	return rep, nil
}

func (e *Engine) load(ctx context.Context, _ *run, rep *Report) (int, error) {
	sources := []dfio.Source{
		{Name: TableUsers, Path: e.cfg.UsersPath, Schema: UsersSchema()},
		{Name: TablePurchases, Path: e.cfg.PurchasesPath, Schema: PurchasesSchema()},
		{Name: TableProducts, Path: e.cfg.ProductsPath, Schema: ProductsSchema()},
	}

	opts := dfio.DefaultCSVOptions()
	opts.NullValues = e.cfg.NullValues

	tables, err := dfio.LoadTables(ctx, sources, opts, e.mem)
	if err != nil {
		return 0, err
	}

	rows := 0
	for i, src := range sources {
		rep.Tables = append(rep.Tables, TableSummary{
			Name:       src.Name,
			Raw:        tables[i],
			RowsBefore: tables[i].Len(),
		})
		rows += tables[i].Len()
		e.logger.DebugContext(ctx, "table loaded",
			"table", src.Name, "path", src.Path, "rows", tables[i].Len(), "columns", tables[i].Width())
	}
	return rows, nil
}

func (e *Engine) clean(ctx context.Context, r *run, rep *Report) (int, error) {
	rows := 0
	for i := range rep.Tables {
		t := &rep.Tables[i]
		cleaned := t.Raw.DropNulls()
		r.cleaned = append(r.cleaned, cleaned)
		t.RowsAfter = cleaned.Len()
		rows += cleaned.Len()

		if t.Raw.HasNulls() {
			e.logger.DebugContext(ctx, "incomplete records dropped",
				"table", t.Name, "dropped", t.RowsBefore-t.RowsAfter, "null_counts", t.Raw.NullCounts())
		}
	}
	return rows, nil
}

func (e *Engine) enrich(ctx context.Context, r *run, rep *Report) (int, error) {
	users, purchases, products := r.cleaned[0], r.cleaned[1], r.cleaned[2]

	withProducts, err := purchases.Join(products, &dataframe.JoinOptions{Key: ColProductID, Exec: r.exec})
	if err != nil {
		return 0, err
	}
	defer withProducts.Release()

	full, err := withProducts.Join(users, &dataframe.JoinOptions{Key: ColUserID, Exec: r.exec})
	if err != nil {
		return 0, err
	}
	defer full.Release()

	joined, err := full.WithProduct(ColTotalPurchase, ColQuantity, ColPrice)
	if err != nil {
		return 0, err
	}
	r.joined = joined
	rep.JoinedRows = joined.Len()

	if unmatched := purchases.Len() - joined.Len(); unmatched > 0 {
		e.logger.DebugContext(ctx, "purchases without a matching user or product", "count", unmatched)
	}
	return joined.Len(), nil
}

func (e *Engine) aggregate(_ context.Context, r *run, rep *Report) (int, error) {
	totals, err := r.joined.GroupBySum(ColCategory, ColTotalPurchase, rep.SumColumn, r.exec)
	if err != nil {
		return 0, err
	}
	rep.CategoryTotals = totals
	return totals.Len(), nil
}

func (e *Engine) ageGroup(ctx context.Context, r *run, rep *Report) (int, error) {
	projected, err := r.joined.Select(ColCategory, ColAge, ColTotalPurchase)
	if err != nil {
		return 0, err
	}
	defer projected.Release()

	young, err := projected.FilterBetween(ColAge, float64(e.cfg.AgeMin), float64(e.cfg.AgeMax))
	if err != nil {
		return 0, err
	}
	r.young = young
	e.logger.DebugContext(ctx, "age group selected", "purchases", young.Len())

	totals, err := young.GroupBySum(ColCategory, ColTotalPurchase, rep.AgeSum, r.exec)
	if err != nil {
		return 0, err
	}
	rep.AgeGroupTotals = totals
	return totals.Len(), nil
}

func (e *Engine) normalize(ctx context.Context, _ *run, rep *Report) (int, error) {
	shares, err := Percentages(ctx, rep.AgeGroupTotals, rep.AgeSum, rep.ShareColumn, e.logger)
	if err != nil {
		return 0, err
	}
	rep.Shares = shares
	return shares.Len(), nil
}

func (e *Engine) rank(_ context.Context, _ *run, rep *Report) (int, error) {
	top, err := TopN(rep.Shares, rep.ShareColumn, ColCategory, e.cfg.TopN)
	if err != nil {
		return 0, err
	}
	rep.Top = top
	return top.Len(), nil
}
