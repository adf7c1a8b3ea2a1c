// Package engine provides the enrichment engine.
// CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sales-enrich/core/catalog"
	"sales-enrich/core/output"
	"sales-enrich/core/sales"
	"sales-enrich/internal/errors"
	"sales-enrich/internal/logging"
)

// CatalogSource fetches catalog payloads. *catalog.Client implements it.
type CatalogSource interface {
	GetAll(ctx context.Context) (catalog.Payload, error)
	GetWithLimit(ctx context.Context, limit int) (catalog.Payload, error)
}

// Engine runs fetch → map → enrich → write.
type Engine struct {
	source    CatalogSource
	sink      output.Sink
	formatter output.Formatter
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFormatter replaces the pipe report formatter
func WithFormatter(f output.Formatter) Option {
	return func(e *Engine) {
		if f != nil {
			e.formatter = f
		}
	}
}

// WithClock overrides time.Now (for testing)
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine reading the catalog from src and writing reports to sink
func New(src CatalogSource, sink output.Sink, opts ...Option) *Engine {
	e := &Engine{
		source:    src,
		sink:      sink,
		formatter: output.PipeFormatter{},
		logger:    logging.Named("engine"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunRequest is the input to Run
type RunRequest struct {
	// Transactions in report order
	Transactions []sales.Transaction

	// Limit caps the catalog fetch; 0 fetches the API default page
	Limit int
}

// Result is the output of Run
type Result struct {
	Summary Summary
	Rows    []sales.EnrichedTransaction
}

// FetchMapping fetches the catalog and reduces it to a Mapping.
// Fetch and shape errors are returned unchanged.
func (e *Engine) FetchMapping(ctx context.Context, limit int) (catalog.Mapping, error) {
	var (
		payload catalog.Payload
		err     error
	)
	if limit > 0 {
		payload, err = e.source.GetWithLimit(ctx, limit)
	} else {
		payload, err = e.source.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	m, err := catalog.BuildMapping(payload)
	if err != nil {
		return nil, err
	}

	e.logger.Info("catalog fetched",
		zap.Stringer("kind", payload.Kind),
		zap.Int("products", len(payload.Products)),
		zap.Int("mapped", m.Size()),
		zap.Int("total", payload.Total),
	)
	return m, nil
}

// EnrichSalesData enriches txs against m and writes the report to the sink.
// The enriched rows are returned even when writing fails. The writer is always
// closed; a failure mid-write leaves a partial report behind.
func (e *Engine) EnrichSalesData(ctx context.Context, txs []sales.Transaction, m catalog.Mapping) (rows []sales.EnrichedTransaction, err error) {
	rows = sales.Enrich(txs, m)

	w, err := e.sink.Open(ctx)
	if err != nil {
		return rows, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.IO("failed to close report", cerr).WithContext("location", e.sink.Location())
		}
	}()

	if werr := e.formatter.Render(w, rows); werr != nil {
		return rows, errors.IO("failed to write report", werr).WithContext("location", e.sink.Location())
	}

	e.logger.Debug("report written",
		zap.String("location", e.sink.Location()),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// SaveEnrichedData returns rows unchanged. The report is already persisted by
// EnrichSalesData; this exists for callers that expect a separate save step.
func SaveEnrichedData(rows []sales.EnrichedTransaction) []sales.EnrichedTransaction {
	return rows
}

// Run executes the full pipeline and summarizes it.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*Result, error) {
	started := e.now()
	runID := uuid.New().String()
	log := e.logger.With(zap.String("run_id", runID))

	log.Info("enrichment started",
		zap.Int("transactions", len(req.Transactions)),
		zap.Int("limit", req.Limit),
	)

	m, err := e.FetchMapping(ctx, req.Limit)
	if err != nil {
		log.Error("catalog fetch failed", zap.Error(err))
		return nil, err
	}
	if m.Size() == 0 {
		return nil, errors.Validation("catalog is empty")
	}

	rows, err := e.EnrichSalesData(ctx, req.Transactions, m)
	if err != nil {
		log.Error("report write failed", zap.Error(err))
		return nil, err
	}
	rows = SaveEnrichedData(rows)

	summary := Summarize(rows)
	summary.RunID = runID
	summary.CatalogSize = m.Size()
	summary.Location = e.sink.Location()
	summary.StartedAt = started
	summary.Duration = e.now().Sub(started)

	log.Info("enrichment completed",
		zap.Int("matched", summary.Matched),
		zap.Int("unmatched", summary.Unmatched),
		zap.String("revenue", summary.Revenue.StringFixed(2)),
		zap.String("location", summary.Location),
		zap.Duration("duration", summary.Duration),
	)

	return &Result{Summary: summary, Rows: rows}, nil
}
