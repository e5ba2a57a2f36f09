// Package bootstrap arma backend de almacenamiento y casos de uso a partir de la configuración.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/sqlite"
	"github.com/jhoicas/fiscal-engine/pkg/config"
)

// Backend repositorios y runner transaccional de un almacenamiento concreto.
type Backend struct {
	Kind      string
	Docs      repository.FiscalDocumentRepository
	Customers repository.CustomerRepository
	Products  repository.ProductRepository
	TaxRates  repository.TaxRateRepository
	Tx        billing.FiscalTxRunner

	ping  func(ctx context.Context) error
	close func()
}

// OpenBackend abre PostgreSQL o SQLite según FISCAL_STORAGE y deja el esquema al día.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Fiscal.Storage {
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.Fiscal.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return NewSQLiteBackend(store), nil
	case config.StoragePostgres, "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return newPostgresBackend(pool), nil
	}
	return nil, fmt.Errorf("almacenamiento desconocido %q", cfg.Fiscal.Storage)
}

// NewSQLiteBackend envuelve un store ya abierto (también usado por los tests con :memory:).
func NewSQLiteBackend(store *sqlite.Store) *Backend {
	db := store.DB()
	return &Backend{
		Kind:      config.StorageSQLite,
		Docs:      sqlite.NewFiscalDocumentRepository(db),
		Customers: sqlite.NewCustomerRepository(db),
		Products:  sqlite.NewProductRepository(db),
		TaxRates:  sqlite.NewTaxRateRepository(db),
		Tx:        sqlite.NewTxRunner(db),
		ping:      db.PingContext,
		close:     func() { _ = store.Close() },
	}
}

func newPostgresBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{
		Kind:      config.StoragePostgres,
		Docs:      postgres.NewFiscalDocumentRepository(pool),
		Customers: postgres.NewCustomerRepository(pool),
		Products:  postgres.NewProductRepository(pool),
		TaxRates:  postgres.NewTaxRateRepository(pool),
		Tx:        postgres.NewTxRunner(pool),
		ping:      pool.Ping,
		close:     pool.Close,
	}
}

// Ping comprueba la conexión.
func (b *Backend) Ping(ctx context.Context) error { return b.ping(ctx) }

// Close libera la conexión o el pool.
func (b *Backend) Close() { b.close() }
