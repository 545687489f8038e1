package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is the only resource served by the catalog. JSON field names are
// part of the public contract and are kept verbatim.
type Product struct {
	ID          int64   `json:"Id"`
	Name        string  `json:"Name" validate:"required,notblank,max=100"`
	Price       *Money  `json:"Price" validate:"required"`
	Description *string `json:"Description"`
}

// Money is a fixed-point amount with two fractional digits.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) *Money {
	return &Money{Decimal: d.Round(2)}
}

// MustMoney parses s and panics on malformed input. Meant for seeds and tests.
func MustMoney(s string) *Money {
	return NewMoney(decimal.RequireFromString(s))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

// Field names one mutable column of a Product.
type Field string

const (
	FieldName        Field = "Name"
	FieldPrice       Field = "Price"
	FieldDescription Field = "Description"
)

var mutableFields = []Field{FieldName, FieldPrice, FieldDescription}

// apply copies the named fields of src into dst. No fields means all of them.
func apply(dst *Product, src Product, fields []Field) {
	if len(fields) == 0 {
		fields = mutableFields
	}
	for _, f := range fields {
		switch f {
		case FieldName:
			dst.Name = src.Name
		case FieldPrice:
			dst.Price = cloneMoney(src.Price)
		case FieldDescription:
			dst.Description = cloneString(src.Description)
		}
	}
}

func (p Product) clone() Product {
	p.Price = cloneMoney(p.Price)
	p.Description = cloneString(p.Description)
	return p
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func strPtr(s string) *string { return &s }

// SeedProducts is the initial catalog content every backend starts with.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Price: MustMoney("1000.00"), Description: strPtr("High-performance laptop")},
		{ID: 2, Name: "Smartphone", Price: MustMoney("500.00"), Description: strPtr("Latest model smartphone")},
	}
}
