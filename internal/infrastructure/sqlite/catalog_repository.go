package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.TaxRateRepository  = (*TaxRateRepo)(nil)
)

// CustomerRepo directorio de clientes.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador.
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Upsert inserta o actualiza por NIF.
func (r *CustomerRepo) Upsert(ctx context.Context, c *entity.Customer) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	query := `
		INSERT INTO customers (id, tax_id, name, phone, city, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tax_id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone, city = excluded.city,
			updated_at = excluded.updated_at`
	_, err := r.q.ExecContext(ctx, query,
		c.ID, c.TaxID, c.Name, c.Phone, c.City, formatInstant(c.CreatedAt), formatInstant(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// GetByTaxID cliente por NIF; (nil, nil) si no existe.
func (r *CustomerRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, tax_id, name, phone, city, created_at, updated_at FROM customers WHERE tax_id = ?`, taxID)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by tax_id: %w", err)
	}
	return c, nil
}

// ListByTaxIDs clientes con esos NIF ordenados por NIF.
func (r *CustomerRepo) ListByTaxIDs(ctx context.Context, taxIDs []string) ([]*entity.Customer, error) {
	if len(taxIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, tax_id, name, phone, city, created_at, updated_at FROM customers
		WHERE tax_id IN (` + placeholders(len(taxIDs)) + `) ORDER BY tax_id`
	rows, err := r.q.QueryContext(ctx, query, stringArgs(taxIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s rowScanner) (*entity.Customer, error) {
	var (
		c                  entity.Customer
		createdAt, updated string
		err                error
	)
	if err = s.Scan(&c.ID, &c.TaxID, &c.Name, &c.Phone, &c.City, &createdAt, &updated); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseInstant(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseInstant(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

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
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	query := `
		INSERT INTO products (id, code, description, type, price, tax_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			description = excluded.description, type = excluded.type, price = excluded.price,
			tax_code = excluded.tax_code, updated_at = excluded.updated_at`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.Code, p.Description, p.Type, p.Price, p.TaxCode,
		formatInstant(p.CreatedAt), formatInstant(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// ListByCodes productos con esos códigos ordenados por código.
func (r *ProductRepo) ListByCodes(ctx context.Context, codes []string) ([]*entity.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query := `SELECT id, code, description, type, price, tax_code, created_at, updated_at FROM products
		WHERE code IN (` + placeholders(len(codes)) + `) ORDER BY code`
	rows, err := r.q.QueryContext(ctx, query, stringArgs(codes)...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var (
			p                  entity.Product
			createdAt, updated string
		)
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.Type, &p.Price, &p.TaxCode, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.CreatedAt, err = parseInstant(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseInstant(updated); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

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
	query := `
		INSERT INTO tax_rates (type, region, code, description, percentage)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(type, region, code) DO UPDATE SET
			description = excluded.description, percentage = excluded.percentage`
	if _, err := r.q.ExecContext(ctx, query, t.Type, t.Region, t.Code, t.Description, t.Percentage); err != nil {
		return fmt.Errorf("upsert tax rate: %w", err)
	}
	return nil
}

// List tasas ordenadas por tipo y código.
func (r *TaxRateRepo) List(ctx context.Context) ([]*entity.TaxRate, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT type, region, code, description, percentage FROM tax_rates ORDER BY type, code, region`)
	if err != nil {
		return nil, fmt.Errorf("list tax rates: %w", err)
	}
	defer rows.Close()
	var list []*entity.TaxRate
	for rows.Next() {
		var t entity.TaxRate
		if err := rows.Scan(&t.Type, &t.Region, &t.Code, &t.Description, &t.Percentage); err != nil {
			return nil, fmt.Errorf("scan tax rate: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
