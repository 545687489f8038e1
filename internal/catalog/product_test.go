package catalog_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductAPI/internal/catalog"
)

func TestValidate(t *testing.T) {
	desc := "anything"

	cases := []struct {
		name    string
		product catalog.Product
		want    map[string][]string
	}{
		{
			name:    "ok",
			product: catalog.Product{Name: "Laptop", Price: catalog.MustMoney("1")},
		},
		{
			name:    "ok with description and zero price",
			product: catalog.Product{Name: "Free sample", Price: catalog.MustMoney("0"), Description: &desc},
		},
		{
			name:    "negative price is accepted",
			product: catalog.Product{Name: "Refund", Price: catalog.MustMoney("-5")},
		},
		{
			name:    "id is not checked",
			product: catalog.Product{ID: -7, Name: "Laptop", Price: catalog.MustMoney("1")},
		},
		{
			name:    "empty name",
			product: catalog.Product{Price: catalog.MustMoney("1")},
			want:    map[string][]string{"Name": {"Name is required"}},
		},
		{
			name:    "whitespace name",
			product: catalog.Product{Name: " \t ", Price: catalog.MustMoney("1")},
			want:    map[string][]string{"Name": {"Name is required"}},
		},
		{
			name:    "long name",
			product: catalog.Product{Name: strings.Repeat("a", 101), Price: catalog.MustMoney("1")},
			want:    map[string][]string{"Name": {"Name must be at most 100 characters"}},
		},
		{
			name:    "no price",
			product: catalog.Product{Name: "Laptop"},
			want:    map[string][]string{"Price": {"Price is required"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := catalog.Validate(tc.product)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}

			var verr *catalog.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.want, verr.Fields)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := catalog.Validate(catalog.Product{})
	require.Error(t, err)
	assert.Equal(t, "validation failed: Name: Name is required, Price: Price is required", err.Error())
}

func TestMoney_JSON(t *testing.T) {
	raw, err := json.Marshal(catalog.Product{ID: 1, Name: "x", Price: catalog.MustMoney("12.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":1,"Name":"x","Price":12.50,"Description":null}`, string(raw))
	assert.Contains(t, string(raw), `"Price":12.50`)

	for in, want := range map[string]string{
		`12.345`:  "12.35",
		`"7"`:     "7.00",
		`1e3`:     "1000.00",
		`0.1`:     "0.10",
		`"99.99"`: "99.99",
	} {
		var m catalog.Money
		require.NoError(t, json.Unmarshal([]byte(in), &m), in)
		assert.Equal(t, want, m.StringFixed(2), in)
	}

	var m catalog.Money
	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &m))
}

func TestNewMoney_Rounds(t *testing.T) {
	m := catalog.NewMoney(decimal.RequireFromString("3.14159"))
	assert.True(t, m.Equal(decimal.RequireFromString("3.14")))
}

func TestSeedProducts_AreIndependentCopies(t *testing.T) {
	a := catalog.SeedProducts()
	b := catalog.SeedProducts()

	*a[0].Description = "changed"
	assert.Equal(t, "High-performance laptop", *b[0].Description)
}
