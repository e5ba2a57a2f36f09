package repository

import (
	"context"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

// CustomerRepository directorio de clientes (lectura para el SAF-T, alta vía seed).
type CustomerRepository interface {
	Upsert(ctx context.Context, customer *entity.Customer) error
	GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error)
	// ListByTaxIDs clientes cuyos NIF estén en taxIDs, ordenados por NIF.
	ListByTaxIDs(ctx context.Context, taxIDs []string) ([]*entity.Customer, error)
}
