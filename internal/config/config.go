package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Variantes da sincronização.
const (
	// VariantElapsed consulta por "fechaDesde" ISO, grava o catálogo só
	// quando o hash muda e recua o watermark pela janela de segurança.
	VariantElapsed = "elapsed"
	// VariantPaged consulta por data+hora com offset/limit e sempre grava.
	VariantPaged = "paged"
)

type Config struct {
	APIBaseURL   string
	EndpointPath string
	CompanyID    string
	StoreID      string
	User         string
	Password     string

	ProductsFile string
	StateFile    string
	Variant      string
	PageSize     int
	MaxPages     int
	Timeout      time.Duration
	SafetyWindow time.Duration
	DefaultSince string

	DatabaseURL     string
	RedisURL        string
	MetricsPort     string
	MetricsTextfile string
	SyncToken       string
	HTTPAddr        string
	LockTTL         time.Duration
	LogLevel        slog.Level

	// PAGE_SIZE explícito no ambiente; sem ele o padrão depende da variante
	pageSizeSet bool
}

func Load() *Config {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	// Se não encontrar, tenta no diretório atual
	_ = godotenv.Load()

	_, pageSizeErr := strconv.Atoi(strings.TrimSpace(os.Getenv("PAGE_SIZE")))

	cfg := &Config{
		APIBaseURL:   strings.TrimRight(getEnv("API_BASE_URL", "http://mobile.scanntech.com"), "/"),
		EndpointPath: getEnv("SCANNTECH_ENDPOINT_PATH", "/api/v1/articulos/cambios"),
		CompanyID:    os.Getenv("API_ID_EMPRESA"),
		StoreID:      os.Getenv("API_ID_LOCAL"),
		User:         os.Getenv("API_USER"),
		Password:     os.Getenv("API_PASS"),

		ProductsFile: getEnv("PRODUCTS_FILE", "public/products.json"),
		StateFile:    getEnv("STATE_FILE", "last_sync.json"),
		PageSize:     getInt("PAGE_SIZE", 0),
		MaxPages:     getInt("MAX_PAGES", 1000),
		Timeout:      time.Duration(getInt("TIMEOUT", 30)) * time.Second,
		SafetyWindow: time.Duration(getInt("SAFETY_SECONDS", 120)) * time.Second,
		DefaultSince: os.Getenv("DEFAULT_SINCE"),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		SyncToken:       os.Getenv("SYNC_TOKEN"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LockTTL:         time.Duration(getInt("LOCK_TTL_SECONDS", 600)) * time.Second,
		LogLevel:        getLevel("LOG_LEVEL", slog.LevelInfo),

		pageSizeSet: pageSizeErr == nil,
	}
	cfg.ApplyVariant(getEnv("SYNC_VARIANT", VariantElapsed))
	return cfg
}

// ApplyVariant troca a variante. Sem PAGE_SIZE no ambiente, o tamanho de
// página volta ao padrão da nova variante (500 paginada, 0 por tempo).
func (c *Config) ApplyVariant(v string) {
	c.Variant = strings.ToLower(strings.TrimSpace(v))
	if c.pageSizeSet {
		return
	}
	c.PageSize = 0
	if c.Variant == VariantPaged {
		c.PageSize = 500
	}
}

// Error é o erro de configuração: lista todas as chaves que faltam.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Validate confere o que a sincronização precisa antes de qualquer chamada
// de rede.
func (c *Config) Validate() error {
	e := &Error{}
	required := []struct{ key, val string }{
		{"API_BASE_URL", c.APIBaseURL},
		{"API_ID_EMPRESA", c.CompanyID},
		{"API_ID_LOCAL", c.StoreID},
		{"API_USER", c.User},
		{"API_PASS", c.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			e.Missing = append(e.Missing, r.key)
		}
	}

	if c.Variant != VariantElapsed && c.Variant != VariantPaged {
		e.Invalid = append(e.Invalid, fmt.Sprintf("SYNC_VARIANT=%q", c.Variant))
	}
	if c.PageSize < 0 {
		e.Invalid = append(e.Invalid, fmt.Sprintf("PAGE_SIZE=%d", c.PageSize))
	}
	if c.Timeout <= 0 {
		e.Invalid = append(e.Invalid, "TIMEOUT")
	}

	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return e
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return d
	}
	return n
}

func getLevel(k string, d slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv(k))); err != nil {
		return d
	}
	return lvl
}
