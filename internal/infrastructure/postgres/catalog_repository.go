package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.TaxRateRepository  = (*TaxRateRepo)(nil)
)

// ── Clientes ──────────────────────────────────────────────────────────────────

// CustomerRepo directorio de clientes.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Upsert inserta o actualiza por NIF.
func (r *CustomerRepo) Upsert(ctx context.Context, c *entity.Customer) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := r.q.Exec(ctx, `
		INSERT INTO customers (id, tax_id, name, phone, city, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tax_id) DO UPDATE SET
			name = EXCLUDED.name, phone = EXCLUDED.phone, city = EXCLUDED.city, updated_at = EXCLUDED.updated_at`,
		c.ID, c.TaxID, c.Name, c.Phone, c.City, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// GetByTaxID (nil, nil) si no existe.
func (r *CustomerRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tax_id, name, phone, city, created_at, updated_at
		FROM customers WHERE tax_id = $1`, taxID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByPos[entity.Customer])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListByTaxIDs clientes con esos NIF, ordenados por NIF.
func (r *CustomerRepo) ListByTaxIDs(ctx context.Context, taxIDs []string) ([]*entity.Customer, error) {
	if len(taxIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, tax_id, name, phone, city, created_at, updated_at
		FROM customers WHERE tax_id = ANY($1) ORDER BY tax_id`, taxIDs)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[entity.Customer])
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return out, nil
}

// ── Productos ─────────────────────────────────────────────────────────────────

// ProductRepo catálogo de productos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Upsert inserta o actualiza por código.
func (r *ProductRepo) Upsert(ctx context.Context, p *entity.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, code, description, type, price, tax_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description, type = EXCLUDED.type, price = EXCLUDED.price,
			tax_code = EXCLUDED.tax_code, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Code, p.Description, p.Type, p.Price, p.TaxCode, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// ListByCodes productos con esos códigos, ordenados por código.
func (r *ProductRepo) ListByCodes(ctx context.Context, codes []string) ([]*entity.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, code, description, type, price, tax_code, created_at, updated_at
		FROM products WHERE code = ANY($1) ORDER BY code`, codes)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[entity.Product])
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return out, nil
}

// ── Impuestos ─────────────────────────────────────────────────────────────────

// TaxRateRepo tabla de impuestos.
type TaxRateRepo struct {
	q Querier
}

// NewTaxRateRepository construye el adaptador.
func NewTaxRateRepository(q Querier) *TaxRateRepo {
	return &TaxRateRepo{q: q}
}

// Upsert inserta o actualiza por (tipo, región, código).
func (r *TaxRateRepo) Upsert(ctx context.Context, t *entity.TaxRate) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tax_rates (type, region, code, description, percentage)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type, region, code) DO UPDATE SET
			description = EXCLUDED.description, percentage = EXCLUDED.percentage`,
		t.Type, t.Region, t.Code, t.Description, t.Percentage,
	)
	if err != nil {
		return fmt.Errorf("upsert tax rate: %w", err)
	}
	return nil
}

// List tasas ordenadas por tipo y código.
func (r *TaxRateRepo) List(ctx context.Context) ([]*entity.TaxRate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT type, region, code, description, percentage
		FROM tax_rates ORDER BY type, code`)
	if err != nil {
		return nil, fmt.Errorf("list tax rates: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[entity.TaxRate])
	if err != nil {
		return nil, fmt.Errorf("scan tax rate: %w", err)
	}
	return out, nil
}
