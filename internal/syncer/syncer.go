// Package syncer orquestra uma rodada: estado → catálogo → cambios → merge
// → gravação idempotente → watermark.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"catalogsync/internal/catalog"
	"catalogsync/internal/config"
	"catalogsync/internal/model"
	"catalogsync/internal/observability"
	"catalogsync/internal/store"
)

// Fetcher busca as mudanças desde o watermark.
type Fetcher interface {
	FetchChanges(ctx context.Context, since time.Time) ([]model.Change, error)
}

// RunRecorder guarda o histórico das execuções.
type RunRecorder interface {
	RecordRun(ctx context.Context, r model.RunReport) error
}

// Mirror replica o catálogo gravado em outro destino.
type Mirror interface {
	MirrorCatalog(ctx context.Context, records []model.Record) error
}

type Syncer struct {
	cfg      *config.Config
	fetcher  Fetcher
	log      *slog.Logger
	metrics  *observability.Metrics
	recorder RunRecorder
	mirror   Mirror
	now      func() time.Time
}

type Option func(*Syncer)

func WithMetrics(m *observability.Metrics) Option { return func(s *Syncer) { s.metrics = m } }
func WithRecorder(r RunRecorder) Option { return func(s *Syncer) { s.recorder = r } }
func WithMirror(m Mirror) Option { return func(s *Syncer) { s.mirror = m } }
func WithClock(now func() time.Time) Option { return func(s *Syncer) { s.now = now } }

func New(cfg *config.Config, fetcher Fetcher, log *slog.Logger, opts ...Option) *Syncer {
	s := &Syncer{cfg: cfg, fetcher: fetcher, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run executa uma rodada completa. Em caso de erro nada é gravado: nem o
// catálogo nem o watermark, para que a próxima execução repita o intervalo.
func (s *Syncer) Run(ctx context.Context) (model.RunReport, error) {
	rep := model.RunReport{
		RunID:     uuid.NewString(),
		Variant:   s.cfg.Variant,
		StartedAt: s.now().UTC(),
	}
	log := s.log.With("run_id", rep.RunID, "variant", rep.Variant)

	err := s.run(ctx, log, &rep)

	rep.FinishedAt = s.now().UTC()
	rep.OK = err == nil
	if err != nil {
		rep.Error = err.Error()
		log.Error("sincronização falhou", "error", err)
	}

	s.publish(ctx, log, rep)
	return rep, err
}

func (s *Syncer) run(ctx context.Context, log *slog.Logger, rep *model.RunReport) error {
	since, err := s.loadWatermark(log)
	if err != nil {
		return err
	}
	rep.Since = since.Format(model.LayoutISO)

	records, err := store.LoadCatalog(s.cfg.ProductsFile)
	if err != nil {
		return err
	}

	hashed := s.cfg.Variant == config.VariantElapsed
	var before string
	if hashed {
		if before, err = catalog.Fingerprint(records); err != nil {
			return err
		}
	}

	log.Info("consultando Scanntech", "since", rep.Since, "catalog_size", len(records))
	fetchedAt := s.now().UTC()
	changes, err := s.fetcher.FetchChanges(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch changes: %w", err)
	}
	rep.Fetched = len(changes)

	if len(changes) == 0 {
		log.Info("sem cambios")
	} else {
		res := catalog.Merge(records, changes, s.now())
		records = res.Catalog
		rep.Created, rep.Updated = res.Created, res.Updated
		rep.Skipped, rep.Deactivated = res.Skipped, res.Deactivated
		if res.SkippedTiers > 0 {
			log.Debug("faixas de DPC descartadas", "count", res.SkippedTiers)
		}
	}
	catalog.SortByID(records)
	rep.CatalogSize = len(records)

	write := true
	if hashed {
		after, err := catalog.Fingerprint(records)
		if err != nil {
			return err
		}
		write = after != before
	}

	if write {
		if err := store.SaveCatalog(s.cfg.ProductsFile, records); err != nil {
			return err
		}
		rep.CatalogWritten = true
		log.Info("catálogo gravado", "file", s.cfg.ProductsFile, "created", rep.Created, "updated", rep.Updated, "skipped", rep.Skipped)
	} else {
		log.Info("sem mudanças reais (hash igual), catálogo não regravado", "file", s.cfg.ProductsFile)
	}

	st := s.nextState(fetchedAt)
	if err := store.SaveState(s.cfg.StateFile, st); err != nil {
		return err
	}
	rep.Watermark = watermarkString(st)
	log.Info("estado gravado", "file", s.cfg.StateFile, "watermark", rep.Watermark)

	if write && s.mirror != nil {
		if err := s.mirror.MirrorCatalog(ctx, records); err != nil {
			log.Warn("falha ao espelhar catálogo", "error", err)
		}
	}
	return nil
}

func (s *Syncer) publish(ctx context.Context, log *slog.Logger, rep model.RunReport) {
	if s.metrics != nil {
		s.metrics.Observe(rep)
		if s.cfg.MetricsTextfile != "" {
			if err := s.metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
				log.Warn("falha ao gravar métricas", "file", s.cfg.MetricsTextfile, "error", err)
			}
		}
	}
	if s.recorder != nil {
		if err := s.recorder.RecordRun(ctx, rep); err != nil {
			log.Warn("falha ao registrar execução", "error", err)
		}
	}
}
