package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security/validation"
)

func validInvestmentValues() url.Values {
	return url.Values{
		"symbol":         {" aapl "},
		"name":           {"Apple Inc."},
		"type":           {"stock"},
		"quantity":       {"10"},
		"purchase_price": {"150.00"},
		"current_price":  {"175.5"},
	}
}

func TestParseNewInvestmentForm(t *testing.T) {
	form, err := ParseNewInvestmentForm(validInvestmentValues())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", form.Symbol)
	assert.Equal(t, models.InvestmentStock, form.Type)
	assert.Equal(t, 10.0, form.Quantity)
	assert.Equal(t, 150.0, form.PurchasePrice)
	assert.Equal(t, 175.5, form.CurrentPrice)
}

func TestParseNewInvestmentForm_InvalidFields(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{"symbol", ""},
		{"name", "  "},
		{"type", "option"},
		{"quantity", "-1"},
		{"quantity", "abc"},
		{"quantity", "0.00001"},
		{"quantity", "1e300"},
		{"quantity", "1e400"},
		{"purchase_price", "1e13"},
		{"purchase_price", ""},
		{"current_price", "-0.01"},
		{"current_price", "1.999"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			v := validInvestmentValues()
			v.Set(tt.field, tt.value)

			_, err := ParseNewInvestmentForm(v)
			require.ErrorIs(t, err, validation.ErrValidationFailed)
			assert.Contains(t, FieldErrorsOf(err), tt.field)
			assert.Len(t, FieldErrorsOf(err), 1)
		})
	}
}

func TestParseNewInvestmentForm_ZeroIsAllowed(t *testing.T) {
	v := validInvestmentValues()
	v.Set("quantity", "0")
	v.Set("purchase_price", "0")

	form, err := ParseNewInvestmentForm(v)
	require.NoError(t, err)
	assert.Zero(t, form.Quantity)
}

func TestParseEditInvestmentForm(t *testing.T) {
	form, err := ParseEditInvestmentForm(url.Values{"quantity": {"12.5"}, "current_price": {"180"}, "purchase_price": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, EditInvestmentForm{Quantity: 12.5, CurrentPrice: 180}, form)

	_, err = ParseEditInvestmentForm(url.Values{"quantity": {"-2"}})
	fields := FieldErrorsOf(err)
	assert.Contains(t, fields, "quantity")
	assert.Contains(t, fields, "current_price")
}

func TestParseWatchlistForm(t *testing.T) {
	form, err := ParseWatchlistForm(url.Values{"symbol": {"nvda"}, "name": {"NVIDIA"}, "sector": {"  "}, "notes": {""}})
	require.NoError(t, err)
	assert.Equal(t, "NVDA", form.Symbol)
	assert.Nil(t, form.Sector)
	assert.Nil(t, form.Notes)

	form, err = ParseWatchlistForm(url.Values{"symbol": {"JPM"}, "name": {"JPMorgan Chase & Co."}, "sector": {"Financial"}})
	require.NoError(t, err)
	require.NotNil(t, form.Sector)
	assert.Equal(t, "Financial", *form.Sector)
	assert.Equal(t, "JPMorgan Chase & Co.", form.Name)

	_, err = ParseWatchlistForm(url.Values{"symbol": {"JPM"}})
	assert.Contains(t, FieldErrorsOf(err), "name")
}

func TestParseCredentialsForm(t *testing.T) {
	form, err := ParseCredentialsForm(url.Values{"email": {"Jane@Example.com"}, "password": {"secret1"}})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", form.Email)

	_, err = ParseCredentialsForm(url.Values{"email": {"nope"}, "password": {"123"}})
	fields := FieldErrorsOf(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}
