package backend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeConvertsDriverValues(t *testing.T) {
	tbl, err := StorefrontSchema().Table(TableProducts)
	require.NoError(t, err)

	row, err := tbl.Normalize(Row{
		"price":      []byte("19.99"),
		"stock":      float64(3),
		"is_active":  int64(1),
		"sizes":      []byte(`["S","M"]`),
		"colors":     nil,
		"created_at": "2024-05-01 10:00:00",
		"bogus":      "dropped",
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("19.99").Equal(row.Decimal("price")))
	assert.Equal(t, 3, row.Int("stock"))
	assert.True(t, row.Bool("is_active"))
	assert.Equal(t, []string{"S", "M"}, row.Strings("sizes"))
	assert.Equal(t, []string{}, row.Strings("colors"))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), row.Time("created_at"))
	assert.NotContains(t, row, "bogus")
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	tbl, err := StorefrontSchema().Table(TableProducts)
	require.NoError(t, err)

	_, err = tbl.Normalize(Row{"stock": "many"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateUnknownTable(t *testing.T) {
	_, err := StorefrontSchema().Validate(Query{Table: "wallets"})
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestPrepareKeepsExplicitID(t *testing.T) {
	tbl, err := StorefrontSchema().Table(TableUserProfiles)
	require.NoError(t, err)
	now := time.Now()

	row := tbl.Prepare(Row{"id": "u1"}, now)
	assert.Equal(t, "u1", row["id"])
	assert.Equal(t, now.UTC(), row["created_at"])

	generated := tbl.Prepare(Row{}, now)
	assert.NotEmpty(t, generated["id"])
}

func TestRangeIsInclusive(t *testing.T) {
	q := From(nil, TableProducts).Range(0, 9).Query()
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 10, q.Limit)
}

func TestJSONColumnKeepsText(t *testing.T) {
	tbl, err := StorefrontSchema().Table(TablePendingOrderItems)
	require.NoError(t, err)

	row, err := tbl.Normalize(Row{"items": []map[string]any{{"product_id": "p1"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":"p1"}]`, row.String("items"))
}
