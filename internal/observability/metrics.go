package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalogsync/internal/model"
)

// Metrics agrupa os coletores da sincronização num registry próprio, para
// que o modo batch possa gravar tudo num textfile do node_exporter.
type Metrics struct {
	Registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	Records       *prometheus.CounterVec
	Fetched       prometheus.Counter
	Duration      prometheus.Histogram
	LastSuccess   prometheus.Gauge
	Watermark     prometheus.Gauge
	CatalogSize   prometheus.Gauge
	CatalogWrites prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogsync_runs_total",
				Help: "Total de execuções da sincronização por resultado",
			},
			[]string{"result"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogsync_records_total",
				Help: "Registros processados por ação (created, updated, skipped, deactivated)",
			},
			[]string{"action"},
		),
		Fetched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalogsync_changes_fetched_total",
				Help: "Total de cambios recebidos da Scanntech",
			},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalogsync_run_duration_seconds",
				Help:    "Duração de cada execução",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalogsync_last_success_timestamp_seconds",
				Help: "Horário da última execução bem-sucedida",
			},
		),
		Watermark: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalogsync_watermark_timestamp_seconds",
				Help: "Watermark gravado na última execução bem-sucedida",
			},
		),
		CatalogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalogsync_catalog_records",
				Help: "Quantidade de produtos no catálogo publicado",
			},
		),
		CatalogWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalogsync_catalog_writes_total",
				Help: "Vezes em que products.json foi regravado",
			},
		),
	}

	m.Registry.MustRegister(m.Runs, m.Records, m.Fetched, m.Duration, m.LastSuccess, m.Watermark, m.CatalogSize, m.CatalogWrites)
	return m
}

// Observe registra o relatório de uma execução.
func (m *Metrics) Observe(r model.RunReport) {
	m.Duration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	if !r.OK {
		m.Runs.WithLabelValues("error").Inc()
		return
	}

	m.Runs.WithLabelValues("ok").Inc()
	m.Fetched.Add(float64(r.Fetched))
	m.Records.WithLabelValues("created").Add(float64(r.Created))
	m.Records.WithLabelValues("updated").Add(float64(r.Updated))
	m.Records.WithLabelValues("skipped").Add(float64(r.Skipped))
	m.Records.WithLabelValues("deactivated").Add(float64(r.Deactivated))
	m.LastSuccess.Set(float64(r.FinishedAt.Unix()))
	m.CatalogSize.Set(float64(r.CatalogSize))
	if wm, err := time.Parse(model.LayoutISO, r.Watermark); err == nil {
		m.Watermark.Set(float64(wm.Unix()))
	}
	if r.CatalogWritten {
		m.CatalogWrites.Inc()
	}
}

// Handler expõe o registry no formato do Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile grava as métricas para o textfile collector do
// node_exporter (modo batch via cron).
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Start sobe o endpoint /metrics numa porta separada.
func Start(port string, m *Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go srv.ListenAndServe()
	return srv
}
