package repositories

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "modal", coalesce("modal", "listing"))
	assert.Equal(t, "listing", coalesce("", "listing"))
	assert.Equal(t, "", coalesce("", ""))
}

func TestFirstInt(t *testing.T) {
	a, b := 10, 20
	assert.Equal(t, &a, firstInt(&a, &b))
	assert.Equal(t, &b, firstInt(nil, &b))
	assert.Nil(t, firstInt(nil, nil))
}

func TestNullString(t *testing.T) {
	assert.True(t, nullString("x").Valid)
	assert.False(t, nullString("").Valid, "empty strings persist as NULL")
}

func TestNullInt(t *testing.T) {
	v := 42
	got := nullInt(&v)
	assert.True(t, got.Valid)
	assert.EqualValues(t, 42, got.Int64)
	assert.False(t, nullInt(nil).Valid)
}

func TestNullDecimal(t *testing.T) {
	d := decimal.RequireFromString("12.34")
	assert.Equal(t, "12.34", nullDecimal(&d))
	assert.Nil(t, nullDecimal(nil))
}

func TestSaleMultiplier(t *testing.T) {
	price := decimal.RequireFromString("100.00")
	assert.Equal(t, "256.00", price.Mul(saleMultiplier).StringFixed(2))

	price = decimal.RequireFromString("19.90")
	assert.Equal(t, "50.94", price.Mul(saleMultiplier).StringFixed(2))
}
