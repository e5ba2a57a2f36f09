package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaVersion versión del esquema embebido.
const SchemaVersion = 1

//go:embed schema.sql
var schemaSQL string

// Migrate aplica el esquema embebido. Idempotente: todo es IF NOT EXISTS.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return withTx(ctx, pool, func(q Querier) error {
		// sin argumentos pgx usa el protocolo simple y acepta varias sentencias
		if _, err := q.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`,
			SchemaVersion,
		); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}
