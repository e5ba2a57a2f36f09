package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

var _ billing.FiscalTxRunner = (*TxRunner)(nil)

// TxRunner exclusión por serie con un mutex en memoria más la conexión única
// del Store. Vale para un solo proceso por archivo de base.
type TxRunner struct {
	db *sql.DB

	mu     sync.Mutex
	series map[string]*sync.Mutex
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db, series: make(map[string]*sync.Mutex)}
}

func (r *TxRunner) lockFor(series string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.series[series]
	if !ok {
		m = &sync.Mutex{}
		r.series[series] = m
	}
	return m
}

// RunSeries ejecuta fn dentro de una transacción con la serie bloqueada.
// fn solo debe usar el repositorio recibido.
func (r *TxRunner) RunSeries(ctx context.Context, series string, fn func(docs repository.FiscalDocumentRepository) error) error {
	lock := r.lockFor(series)
	lock.Lock()
	defer lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewFiscalDocumentRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
