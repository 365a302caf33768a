package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalogsync/internal/catalog"
	"catalogsync/internal/model"
	"catalogsync/internal/normalize"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS catalog_products (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	price      NUMERIC,
	stock      NUMERIC,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	payload    JSONB NOT NULL,
	synced_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// CatalogRepository espelha o products.json no Postgres para consultas.
type CatalogRepository struct {
	DB *pgxpool.Pool
}

// ProductRow é a projeção de um registro do catálogo nas colunas da tabela.
type ProductRow struct {
	ID      string
	Name    string
	Price   *float64
	Stock   *float64
	Active  bool
	Payload []byte
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, catalogSchema)
	return err
}

// MirrorCatalog faz upsert de todos os registros numa única transação.
// Registros sem identidade ficam de fora.
func (r *CatalogRepository) MirrorCatalog(ctx context.Context, records []model.Record) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		row, ok, err := ToRow(rec)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		batch.Queue(`
			INSERT INTO catalog_products (id, name, price, stock, active, payload, synced_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock,
			    active = EXCLUDED.active, payload = EXCLUDED.payload, synced_at = now()
		`, row.ID, row.Name, row.Price, row.Stock, row.Active, row.Payload)
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("mirror catalog: %w", err)
	}
	return tx.Commit(ctx)
}

// ToRow projeta um registro nas colunas da tabela. ok=false para registros
// sem identidade.
func ToRow(rec model.Record) (ProductRow, bool, error) {
	id := catalog.Identity(rec)
	if id == "" {
		return ProductRow{}, false, nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return ProductRow{}, false, fmt.Errorf("encode %s: %w", id, err)
	}

	row := ProductRow{
		ID:      id,
		Name:    strings.ToValidUTF8(normalize.ToString(rec[model.KeyName]), ""),
		Active:  true,
		Payload: payload,
	}
	if p, ok := normalize.ToFloat(rec[model.KeyPrice]); ok {
		row.Price = &p
	}
	if s, ok := normalize.ToFloat(rec[model.KeyStock]); ok {
		row.Stock = &s
	}
	if v, ok := rec[model.KeyActivo]; ok && v != nil {
		row.Active = normalize.Truthy(v)
	}
	return row, true, nil
}
