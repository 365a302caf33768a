// Package scanntech consulta o feed de cambios da API Etiquetas.
package scanntech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/model"
)

const userAgent = "catalogsync/1.0"

type Client struct {
	httpClient *http.Client
	log        *slog.Logger

	endpoint  string
	companyID string
	storeID   string
	user      string
	password  string
	variant   string
	pageSize  int
	maxPages  int
}

func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		endpoint:   cfg.APIBaseURL + cfg.EndpointPath,
		companyID:  cfg.CompanyID,
		storeID:    cfg.StoreID,
		user:       cfg.User,
		password:   cfg.Password,
		variant:    cfg.Variant,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
	}
}

// FetchChanges busca todas as mudanças desde o watermark, página a página.
// Com pageSize zero faz uma única requisição.
func (c *Client) FetchChanges(ctx context.Context, since time.Time) ([]model.Change, error) {
	var all []model.Change
	offset := 0

	for page := 0; ; page++ {
		if c.maxPages > 0 && page >= c.maxPages {
			return nil, &UpstreamError{URL: c.endpoint, Err: fmt.Errorf("more than %d pages", c.maxPages)}
		}

		items, raw, err := c.fetchPage(ctx, c.query(since, offset))
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		c.log.Debug("página recebida", "page", page, "offset", offset, "items", len(items), "raw", raw)

		// Página curta é a última
		if c.pageSize <= 0 || raw < c.pageSize {
			break
		}
		offset += c.pageSize
	}

	c.log.Info("cambios recebidos", "count", len(all), "since", since.Format(model.LayoutISO))
	return all, nil
}

func (c *Client) query(since time.Time, offset int) url.Values {
	q := url.Values{}
	since = since.UTC()
	if c.variant == config.VariantPaged {
		q.Set("fechaDesde", since.Format(model.LayoutDate))
		q.Set("horaDesde", since.Format(model.LayoutTime))
	} else {
		q.Set("fechaDesde", since.Format(model.LayoutISO))
	}
	if c.pageSize > 0 {
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageSize))
	}
	return q
}

func (c *Client) fetchPage(ctx context.Context, q url.Values) ([]model.Change, int, error) {
	u := c.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request for %s: %w", c.endpoint, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("idEmpresa", c.companyID)
	req.Header.Set("idLocal", c.storeID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &UpstreamError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &UpstreamError{URL: c.endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, &UpstreamError{
			URL:     c.endpoint,
			Status:  resp.StatusCode,
			Snippet: Snippet(body, resp.Header.Get("Content-Type")),
		}
	}

	var data any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, 0, &UpstreamError{URL: c.endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}

	items, raw, err := ExtractItems(data)
	if err != nil {
		return nil, 0, &UpstreamError{URL: c.endpoint, Status: resp.StatusCode, Err: err}
	}
	return items, raw, nil
}

// ErrUnexpectedShape indica uma resposta sem lista de cambios reconhecível.
var ErrUnexpectedShape = errors.New("unexpected response shape: no list of changes")
