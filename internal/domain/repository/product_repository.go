package repository

import (
	"context"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

// ProductRepository catálogo de productos referenciados por las líneas.
type ProductRepository interface {
	Upsert(ctx context.Context, product *entity.Product) error
	// ListByCodes productos con esos códigos, ordenados por código.
	ListByCodes(ctx context.Context, codes []string) ([]*entity.Product, error)
}

// TaxRateRepository tabla de impuestos vigente.
type TaxRateRepository interface {
	Upsert(ctx context.Context, rate *entity.TaxRate) error
	// List tasas ordenadas por tipo y código.
	List(ctx context.Context) ([]*entity.TaxRate, error)
}
