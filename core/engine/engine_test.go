package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-enrich/adapters/storage"
	"sales-enrich/core/catalog"
	"sales-enrich/core/output"
	"sales-enrich/core/sales"
	"sales-enrich/internal/errors"
)

type fakeSource struct {
	payload   catalog.Payload
	err       error
	calls     []string
	lastLimit int
}

func (f *fakeSource) GetAll(ctx context.Context) (catalog.Payload, error) {
	f.calls = append(f.calls, "all")
	return f.payload, f.err
}

func (f *fakeSource) GetWithLimit(ctx context.Context, limit int) (catalog.Payload, error) {
	f.calls = append(f.calls, "limit")
	f.lastLimit = limit
	return f.payload, f.err
}

func catalogOf(n int) catalog.Payload {
	products := make([]catalog.Product, 0, n)
	for i := 1; i <= n; i++ {
		id := i
		products = append(products, catalog.Product{
			ID:       &id,
			Category: fmt.Sprintf("cat-%d", i),
			Brand:    fmt.Sprintf("brand-%d", i),
			Rating:   4.5,
		})
	}
	return catalog.Payload{Kind: catalog.PayloadEnvelope, Products: products}
}

func newTestEngine(src CatalogSource, sink output.Sink) *Engine {
	return New(src, sink, WithLogger(zap.NewNop()))
}

func TestRun(t *testing.T) {
	src := &fakeSource{payload: catalogOf(30)}
	sink := storage.NewMemorySink()

	res, err := newTestEngine(src, sink).Run(context.Background(), RunRequest{
		Transactions: []sales.Transaction{
			{TransactionID: "T1", ProductID: "P61", Quantity: "2", UnitPrice: "10.50"},
			{TransactionID: "T2", ProductID: "XYZ", Quantity: "1", UnitPrice: "3"},
			{TransactionID: "T3", ProductID: "p5", Quantity: "n/a", UnitPrice: "3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, src.calls)

	s := res.Summary
	_, err = uuid.Parse(s.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Matched)
	assert.Equal(t, 1, s.Unmatched)
	assert.InDelta(t, 2.0/3.0, s.MatchRate, 1e-9)
	assert.True(t, decimal.RequireFromString("24").Equal(s.Revenue), s.Revenue.String())
	assert.Equal(t, 2, s.PricedRows)
	assert.Equal(t, 30, s.CatalogSize)
	assert.Equal(t, "memory", s.Location)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "cat-1", res.Rows[0].APICategory)
	assert.Equal(t, "cat-5", res.Rows[2].APICategory)

	lines := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, output.Header, lines[0])
	assert.Equal(t, "T1||P61||2|10.50|||cat-1|brand-1|4.5|True", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "|False"))
}

func TestRunUsesLimit(t *testing.T) {
	src := &fakeSource{payload: catalogOf(5)}

	_, err := newTestEngine(src, storage.NewMemorySink()).Run(context.Background(), RunRequest{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"limit"}, src.calls)
	assert.Equal(t, 100, src.lastLimit)
}

func TestRunEmptyCatalog(t *testing.T) {
	src := &fakeSource{payload: catalog.Payload{Kind: catalog.PayloadList}}
	sink := storage.NewMemorySink()

	_, err := newTestEngine(src, sink).Run(context.Background(), RunRequest{
		Transactions: []sales.Transaction{{ProductID: "P1"}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	assert.Contains(t, err.Error(), "catalog is empty")
	assert.Zero(t, sink.Opens())
}

func TestRunFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.Fetch("Error fetching all products", io.ErrUnexpectedEOF)
	src := &fakeSource{err: fetchErr}
	sink := storage.NewMemorySink()

	_, err := newTestEngine(src, sink).Run(context.Background(), RunRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, errors.IsType(err, errors.TypeFetch))
	assert.Zero(t, sink.Opens())
}

func TestRunInvalidShape(t *testing.T) {
	src := &fakeSource{payload: catalog.Payload{Kind: catalog.PayloadObject}}

	_, err := newTestEngine(src, storage.NewMemorySink()).Run(context.Background(), RunRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	assert.Equal(t, "Invalid API product format", err.Error())
}

func TestRunDuration(t *testing.T) {
	base := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(1500 * time.Millisecond)}
	clock := func() time.Time {
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	e := New(&fakeSource{payload: catalogOf(1)}, storage.NewMemorySink(), WithLogger(zap.NewNop()), WithClock(clock))
	res, err := e.Run(context.Background(), RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, base, res.Summary.StartedAt)
	assert.Equal(t, 1500*time.Millisecond, res.Summary.Duration)
}

type failingSink struct {
	openErr  error
	writeErr error
	closed   bool
}

func (s *failingSink) Open(ctx context.Context) (io.WriteCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &failingWriter{s: s}, nil
}

func (s *failingSink) Location() string { return "failing" }

type failingWriter struct {
	s *failingSink
}

func (w *failingWriter) Write(p []byte) (int, error) { return 0, w.s.writeErr }

func (w *failingWriter) Close() error {
	w.s.closed = true
	return nil
}

func TestEnrichSalesDataWriteFailureStillCloses(t *testing.T) {
	sink := &failingSink{writeErr: io.ErrShortWrite}
	e := newTestEngine(&fakeSource{}, sink)

	rows, err := e.EnrichSalesData(context.Background(),
		[]sales.Transaction{{ProductID: "P1"}},
		catalog.Mapping{1: {Category: "C"}},
	)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeIO))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.True(t, sink.closed)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].APIMatch)
}

func TestEnrichSalesDataOpenFailure(t *testing.T) {
	openErr := errors.IO("failed to create output file", io.ErrClosedPipe)
	e := newTestEngine(&fakeSource{}, &failingSink{openErr: openErr})

	rows, err := e.EnrichSalesData(context.Background(), []sales.Transaction{{ProductID: "P1"}}, catalog.Mapping{})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Len(t, rows, 1)
}

func TestEnrichSalesDataJSONFormatter(t *testing.T) {
	sink := storage.NewMemorySink()
	e := New(&fakeSource{}, sink, WithLogger(zap.NewNop()), WithFormatter(output.JSONFormatter{}))

	_, err := e.EnrichSalesData(context.Background(), []sales.Transaction{{ProductID: "P1"}}, catalog.Mapping{1: {Brand: "B"}})
	require.NoError(t, err)
	assert.Contains(t, sink.String(), `"API_Brand":"B"`)
}

func TestSaveEnrichedDataPassThrough(t *testing.T) {
	rows := []sales.EnrichedTransaction{{APIMatch: true}}
	assert.Equal(t, rows, SaveEnrichedData(rows))
	assert.Nil(t, SaveEnrichedData(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.MatchRate)
	assert.True(t, s.Revenue.IsZero())

	s = Summarize([]sales.EnrichedTransaction{
		{Transaction: sales.Transaction{Quantity: " 3 ", UnitPrice: "0.10"}, APIMatch: true},
		{Transaction: sales.Transaction{Quantity: "1", UnitPrice: "0.20"}},
	})
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 0.5, s.MatchRate)
	assert.Equal(t, "0.50", s.Revenue.StringFixed(2))
}
