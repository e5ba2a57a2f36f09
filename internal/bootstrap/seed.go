package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// Catalog archivo YAML de referencia con clientes, productos e impuestos.
//
//	customers:
//	  - tax_id: "123456789"
//	    name: Morabeza Lda
//	products:
//	  - code: CAFE
//	    description: Café torrado
//	    price: "50.00"
//	tax_rates:
//	  - code: NOR
//	    percentage: "15"
type Catalog struct {
	Customers []CatalogCustomer `yaml:"customers"`
	Products  []CatalogProduct  `yaml:"products"`
	TaxRates  []CatalogTaxRate  `yaml:"tax_rates"`
}

type CatalogCustomer struct {
	TaxID string `yaml:"tax_id"`
	Name  string `yaml:"name"`
	Phone string `yaml:"phone"`
	City  string `yaml:"city"`
}

type CatalogProduct struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"` // P | S
	Price       string `yaml:"price"`
	TaxCode     string `yaml:"tax_code"`
}

type CatalogTaxRate struct {
	Type        string `yaml:"type"`
	Region      string `yaml:"region"`
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Percentage  string `yaml:"percentage"`
}

// SeedResult cantidades insertadas o actualizadas.
type SeedResult struct {
	Customers int
	Products  int
	TaxRates  int
}

// ParseCatalog decodifica el YAML; campos desconocidos son error.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("catálogo: %w", err)
	}
	return &c, nil
}

// Seed hace upsert del catálogo. Los NIF se normalizan y validan.
func Seed(ctx context.Context, b *Backend, c *Catalog, now time.Time) (SeedResult, error) {
	var res SeedResult
	for i, in := range c.Customers {
		if err := saft.ValidateNIF(in.TaxID); err != nil {
			return res, fmt.Errorf("customers[%d]: %w", i, err)
		}
		nif := saft.NormalizeNIF(in.TaxID)
		err := b.Customers.Upsert(ctx, &entity.Customer{
			TaxID: nif, Name: in.Name, Phone: in.Phone, City: in.City,
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return res, fmt.Errorf("customers[%d]: %w", i, err)
		}
		res.Customers++
	}
	for i, in := range c.Products {
		if in.Code == "" {
			return res, fmt.Errorf("products[%d]: código requerido", i)
		}
		price, err := parseAmount(in.Price)
		if err != nil {
			return res, fmt.Errorf("products[%d].price: %w", i, err)
		}
		kind := in.Type
		if kind == "" {
			kind = saft.ProductTypeGood
		}
		taxCode := in.TaxCode
		if taxCode == "" {
			taxCode = saft.TaxCodeNormal
		}
		err = b.Products.Upsert(ctx, &entity.Product{
			Code: in.Code, Description: in.Description, Type: kind,
			Price: price, TaxCode: taxCode, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return res, fmt.Errorf("products[%d]: %w", i, err)
		}
		res.Products++
	}
	for i, in := range c.TaxRates {
		pct, err := parseAmount(in.Percentage)
		if err != nil {
			return res, fmt.Errorf("tax_rates[%d].percentage: %w", i, err)
		}
		rate := &entity.TaxRate{Type: in.Type, Region: in.Region, Code: in.Code, Description: in.Description, Percentage: pct}
		if rate.Type == "" {
			rate.Type = saft.TaxTypeIVA
		}
		if rate.Region == "" {
			rate.Region = saft.CountryCV
		}
		if err := b.TaxRates.Upsert(ctx, rate); err != nil {
			return res, fmt.Errorf("tax_rates[%d]: %w", i, err)
		}
		res.TaxRates++
	}
	return res, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %s", s)
	}
	return d, nil
}
