package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/config"
	"catalogsync/internal/model"
	"catalogsync/internal/observability"
	"catalogsync/internal/scanntech"
)

var clock = time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	changes []model.Change
	err     error
	since   []time.Time
}

func (f *fakeFetcher) FetchChanges(_ context.Context, since time.Time) ([]model.Change, error) {
	f.since = append(f.since, since)
	return f.changes, f.err
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordRun(ctx context.Context, r model.RunReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) MirrorCatalog(ctx context.Context, records []model.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func testConfig(t *testing.T, variant string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		ProductsFile: filepath.Join(dir, "public", "products.json"),
		StateFile:    filepath.Join(dir, "last_sync.json"),
		Variant:      variant,
		SafetyWindow: 120 * time.Second,
	}
}

func newSyncer(cfg *config.Config, f Fetcher, opts ...Option) *Syncer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(func() time.Time { return clock })}, opts...)
	return New(cfg, f, log, opts...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()
	fi, err := os.Stat(path)
	require.NoError(t, err)
	return fi.ModTime()
}

func TestRunElapsedMergesAndAdvancesWatermark(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	writeFile(t, cfg.StateFile, `{"last_sync": "2024-06-01T08:00:00"}`)
	writeFile(t, cfg.ProductsFile, `[{"id": "B", "name": "Yerba", "price": 300}, {"id": "A", "name": "Coca", "price": 120}]`)

	f := &fakeFetcher{changes: []model.Change{
		{"codigoInterno": "A", "precioRegular": 130.0},
		{"codigoInterno": "C", "descripcion": "Fideos"},
		{"descripcion": "sin codigo"},
	}}

	rep, err := newSyncer(cfg, f).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.since, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), f.since[0])

	assert.True(t, rep.OK)
	assert.Equal(t, 3, rep.Fetched)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 3, rep.CatalogSize)
	assert.True(t, rep.CatalogWritten)
	assert.Equal(t, "2024-06-02T09:58:00", rep.Watermark)
	assert.NotEmpty(t, rep.RunID)

	var products []map[string]any
	readJSON(t, cfg.ProductsFile, &products)
	require.Len(t, products, 3)
	assert.Equal(t, []any{"A", "B", "C"}, []any{products[0]["id"], products[1]["id"], products[2]["id"]})
	assert.Equal(t, 130.0, products[0]["price"])
	assert.Equal(t, "Coca", products[0]["name"])
	assert.Equal(t, "Nuevos", products[2]["category"])

	var st map[string]string
	readJSON(t, cfg.StateFile, &st)
	assert.Equal(t, map[string]string{"last_sync": "2024-06-02T09:58:00"}, st)
}

func TestRunElapsedWithoutChangesSkipsCatalogWrite(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	original := `[{"id": "B"}, {"id": "A", "price": 1.50}]`
	writeFile(t, cfg.ProductsFile, original)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(cfg.ProductsFile, old, old))

	rep, err := newSyncer(cfg, &fakeFetcher{}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, rep.CatalogWritten)
	assert.Equal(t, old.Unix(), modTime(t, cfg.ProductsFile).Unix())
	b, _ := os.ReadFile(cfg.ProductsFile)
	assert.Equal(t, original, string(b))

	// o watermark avança mesmo sem cambios
	var st map[string]string
	readJSON(t, cfg.StateFile, &st)
	assert.Equal(t, "2024-06-02T09:58:00", st["last_sync"])
}

func TestRunElapsedDefaultsToYesterday(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	f := &fakeFetcher{}

	_, err := newSyncer(cfg, f).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), f.since[0])
	assert.NoFileExists(t, cfg.ProductsFile)
}

func TestRunUsesDefaultSince(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	cfg.DefaultSince = "2023-01-15"
	f := &fakeFetcher{}

	_, err := newSyncer(cfg, f).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), f.since[0])
}

func TestRunPagedAlwaysWritesAndSplitsWatermark(t *testing.T) {
	cfg := testConfig(t, config.VariantPaged)
	writeFile(t, cfg.StateFile, `{"fecha": "2024-05-30", "hora": "23:10:05"}`)
	writeFile(t, cfg.ProductsFile, `[{"id": "A"}]`)
	f := &fakeFetcher{}

	rep, err := newSyncer(cfg, f).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 30, 23, 10, 5, 0, time.UTC), f.since[0])
	assert.True(t, rep.CatalogWritten)

	var st map[string]string
	readJSON(t, cfg.StateFile, &st)
	assert.Equal(t, map[string]string{"fecha": "2024-06-02", "hora": "10:00:00"}, st)
}

func TestRunUpstreamFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	writeFile(t, cfg.StateFile, `{"last_sync": "2024-06-01T08:00:00"}`)
	writeFile(t, cfg.ProductsFile, `[{"id": "A"}]`)

	f := &fakeFetcher{err: &scanntech.UpstreamError{Status: 500}}
	rec := new(MockRecorder)
	rec.On("RecordRun", mock.Anything, mock.MatchedBy(func(r model.RunReport) bool {
		return !r.OK && r.Error != ""
	})).Return(nil)

	rep, err := newSyncer(cfg, f, WithRecorder(rec)).Run(context.Background())

	var uerr *scanntech.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.False(t, rep.OK)
	rec.AssertExpectations(t)

	b, _ := os.ReadFile(cfg.StateFile)
	assert.JSONEq(t, `{"last_sync": "2024-06-01T08:00:00"}`, string(b))
	b, _ = os.ReadFile(cfg.ProductsFile)
	assert.Equal(t, `[{"id": "A"}]`, string(b))
}

func TestRunRejectsCatalogThatIsNotArray(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	writeFile(t, cfg.ProductsFile, `{"products": []}`)
	f := &fakeFetcher{}

	_, err := newSyncer(cfg, f).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.since, "must abort before calling the API")
	assert.NoFileExists(t, cfg.StateFile)
}

func TestRunRejectsInvalidState(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	writeFile(t, cfg.StateFile, `{"last_sync": "ontem"}`)

	_, err := newSyncer(cfg, &fakeFetcher{}).Run(context.Background())
	assert.ErrorContains(t, err, "invalid last_sync")
}

func TestRunPublishesToSinks(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "catalogsync.prom")
	f := &fakeFetcher{changes: []model.Change{{"codigoInterno": "N"}}}

	rec := new(MockRecorder)
	rec.On("RecordRun", mock.Anything, mock.MatchedBy(func(r model.RunReport) bool {
		return r.OK && r.Created == 1
	})).Return(errors.New("db down"))

	mir := new(MockMirror)
	mir.On("MirrorCatalog", mock.Anything, mock.MatchedBy(func(rs []model.Record) bool {
		return len(rs) == 1
	})).Return(nil)

	metrics := observability.NewMetrics()
	rep, err := newSyncer(cfg, f, WithRecorder(rec), WithMirror(mir), WithMetrics(metrics)).Run(context.Background())

	// falhas dos destinos opcionais não derrubam a rodada
	require.NoError(t, err)
	assert.True(t, rep.OK)
	rec.AssertExpectations(t)
	mir.AssertExpectations(t)
	assert.FileExists(t, cfg.MetricsTextfile)
}

func TestRunSkipsMirrorWhenCatalogUnchanged(t *testing.T) {
	cfg := testConfig(t, config.VariantElapsed)
	writeFile(t, cfg.ProductsFile, `[]`)
	mir := new(MockMirror)

	_, err := newSyncer(cfg, &fakeFetcher{}, WithMirror(mir)).Run(context.Background())
	require.NoError(t, err)
	mir.AssertNotCalled(t, "MirrorCatalog", mock.Anything, mock.Anything)
}
