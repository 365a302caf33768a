package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/model"
)

func TestToRow(t *testing.T) {
	rec := model.Record{
		"id":     "123",
		"name":   "Yerba 1kg",
		"price":  json.Number("189.5"),
		"stock":  0.0,
		"activo": false,
		"extra":  "x",
	}

	row, ok, err := ToRow(rec)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "123", row.ID)
	assert.Equal(t, "Yerba 1kg", row.Name)
	require.NotNil(t, row.Price)
	assert.Equal(t, 189.5, *row.Price)
	require.NotNil(t, row.Stock)
	assert.Equal(t, 0.0, *row.Stock)
	assert.False(t, row.Active)
	assert.JSONEq(t, `{"id":"123","name":"Yerba 1kg","price":189.5,"stock":0,"activo":false,"extra":"x"}`, string(row.Payload))
}

func TestToRowDefaults(t *testing.T) {
	row, ok, err := ToRow(model.Record{"scanntechId": "77"})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "77", row.ID)
	assert.Nil(t, row.Price)
	assert.Nil(t, row.Stock)
	assert.True(t, row.Active)
}

func TestToRowWithoutIdentity(t *testing.T) {
	_, ok, err := ToRow(model.Record{"name": "órfão"})
	require.NoError(t, err)
	assert.False(t, ok)
}
