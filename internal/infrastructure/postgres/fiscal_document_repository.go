package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

var _ repository.FiscalDocumentRepository = (*FiscalDocumentRepo)(nil)

const documentColumns = `id, series, sequence_number, document_type, issue_date, issue_time,
	net_amount, tax_amount, grand_total, customer_tax_id, customer_name,
	chain_hash, previous_chain_hash, document_identifier, is_sealed, sealed_at,
	is_credit_note, original_document_id, credit_reason_code, credit_description,
	source_ref, notes, created_at, updated_at`

const lineColumns = `id, document_id, line_number, product_code, description, quantity,
	unit_price, tax_code, tax_percentage, net_amount, tax_amount`

// FiscalDocumentRepo implementación de FiscalDocumentRepository (usable con pool o tx).
type FiscalDocumentRepo struct {
	q     Querier
	guard *fiscal.Guard
}

// NewFiscalDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q, guard: fiscal.NewGuard()}
}

// Create persiste el borrador y sus líneas.
func (r *FiscalDocumentRepo) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	return withTx(ctx, r.q, func(q Querier) error {
		query := `INSERT INTO fiscal_documents (` + documentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
		if _, err := q.Exec(ctx, query, documentArgs(doc)...); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert fiscal document: %w", err)
		}
		return insertLines(ctx, q, doc)
	})
}

// GetByID documento con líneas; (nil, nil) si no existe.
func (r *FiscalDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	return getByID(ctx, r.q, id, false)
}

// Update bloquea la fila (FOR UPDATE), pasa por la guardia y escribe.
func (r *FiscalDocumentRepo) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	return withTx(ctx, r.q, func(q Querier) error {
		existing, err := getByID(ctx, q, doc.ID, true)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("documento %s: %w", doc.ID, domain.ErrNotFound)
		}
		if err := r.guard.BeforeUpdate(existing, doc); err != nil {
			return err
		}

		query := `UPDATE fiscal_documents SET
			series = $1, sequence_number = $2, document_type = $3, issue_date = $4, issue_time = $5,
			net_amount = $6, tax_amount = $7, grand_total = $8, customer_tax_id = $9, customer_name = $10,
			chain_hash = $11, previous_chain_hash = $12, document_identifier = $13, is_sealed = $14, sealed_at = $15,
			is_credit_note = $16, original_document_id = $17, credit_reason_code = $18, credit_description = $19,
			source_ref = $20, notes = $21, updated_at = $22
			WHERE id = $23`
		params := append([]any{}, documentArgs(doc)[1:22]...)
		params = append(params, doc.UpdatedAt.UTC(), doc.ID)
		if _, err := q.Exec(ctx, query, params...); err != nil {
			if isUniqueViolation(err) {
				return &domain.SequenceConflictError{Series: doc.Series, Reason: "número o predecesor ya sellado en la serie"}
			}
			return fmt.Errorf("update fiscal document: %w", err)
		}

		if existing.IsSealed {
			return nil
		}
		if _, err := q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
			return fmt.Errorf("delete document lines: %w", err)
		}
		return insertLines(ctx, q, doc)
	})
}

// Delete elimina un borrador; los sellados los rechaza la guardia.
func (r *FiscalDocumentRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.q, func(q Querier) error {
		existing, err := getByID(ctx, q, id, true)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
		}
		if err := r.guard.BeforeDelete(existing); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM fiscal_documents WHERE id = $1 AND NOT is_sealed`, id); err != nil {
			return fmt.Errorf("delete fiscal document: %w", err)
		}
		return nil
	})
}

// FindLatestSealed último sellado de la serie con sealed_at <= at.
func (r *FiscalDocumentRepo) FindLatestSealed(ctx context.Context, series string, at time.Time, excludeID string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE series = $1 AND is_sealed AND sealed_at <= $2 AND id <> $3
		ORDER BY sealed_at DESC, sequence_number DESC
		LIMIT 1`
	docs, err := listDocuments(ctx, r.q, query, series, at.UTC(), excludeID)
	if err != nil {
		return nil, fmt.Errorf("find latest sealed: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// MaxSequence mayor número sellado de la serie.
func (r *FiscalDocumentRepo) MaxSequence(ctx context.Context, series string) (int64, error) {
	var maxSeq int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM fiscal_documents WHERE series = $1 AND is_sealed`,
		series,
	).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}
	return maxSeq, nil
}

// ListSealedByIssueDate sellados con issue_date en [start, end].
func (r *FiscalDocumentRepo) ListSealedByIssueDate(ctx context.Context, start, end time.Time) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE is_sealed AND issue_date BETWEEN $1::date AND $2::date
		ORDER BY series, sequence_number`
	docs, err := listDocuments(ctx, r.q, query, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list sealed by issue date: %w", err)
	}
	return docs, nil
}

// ListSealedBySeries cadena completa de la serie.
func (r *FiscalDocumentRepo) ListSealedBySeries(ctx context.Context, series string) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE is_sealed AND series = $1
		ORDER BY sequence_number`
	docs, err := listDocuments(ctx, r.q, query, series)
	if err != nil {
		return nil, fmt.Errorf("list sealed by series: %w", err)
	}
	return docs, nil
}

// SumCredited suma en NUMERIC, sin pasar por float.
func (r *FiscalDocumentRepo) SumCredited(ctx context.Context, originalID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(grand_total), 0) FROM fiscal_documents
		 WHERE original_document_id = $1 AND is_credit_note AND is_sealed`,
		originalID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credited: %w", err)
	}
	return total, nil
}

func getByID(ctx context.Context, q Querier, id string, forUpdate bool) (*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	docs, err := listDocuments(ctx, q, query, id)
	if err != nil {
		return nil, fmt.Errorf("get fiscal document: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func listDocuments(ctx context.Context, q Querier, query string, args ...any) ([]*entity.FiscalDocument, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.Lines, err = loadLines(ctx, q, d.ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func scanDocument(row pgx.CollectableRow) (*entity.FiscalDocument, error) {
	var (
		d               entity.FiscalDocument
		docType, reason string
		original        *string
	)
	err := row.Scan(
		&d.ID, &d.Series, &d.SequenceNumber, &docType, &d.IssueDate, &d.IssueTime,
		&d.NetAmount, &d.TaxAmount, &d.GrandTotal, &d.CustomerTaxID, &d.CustomerName,
		&d.ChainHash, &d.PreviousChainHash, &d.DocumentIdentifier, &d.IsSealed, &d.SealedAt,
		&d.IsCreditNote, &original, &reason, &d.CreditDescription,
		&d.SourceRef, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan fiscal document: %w", err)
	}
	d.DocumentType = entity.DocumentType(docType)
	d.CreditReasonCode = entity.CreditReason(reason)
	if original != nil {
		d.OriginalDocumentID = *original
	}
	d.IssueDate = d.IssueDate.UTC()
	if d.SealedAt != nil {
		t := d.SealedAt.UTC()
		d.SealedAt = &t
	}
	d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	return &d, nil
}

func loadLines(ctx context.Context, q Querier, documentID string) ([]entity.DocumentLine, error) {
	rows, err := q.Query(ctx,
		`SELECT `+lineColumns+` FROM document_lines WHERE document_id = $1 ORDER BY line_number`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DocumentLine, error) {
		var l entity.DocumentLine
		err := row.Scan(
			&l.ID, &l.DocumentID, &l.LineNumber, &l.ProductCode, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.TaxCode, &l.TaxPercentage, &l.NetAmount, &l.TaxAmount,
		)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan document line: %w", err)
	}
	return lines, nil
}

// insertLines envía todas las líneas en un solo batch.
func insertLines(ctx context.Context, q Querier, doc *entity.FiscalDocument) error {
	if len(doc.Lines) == 0 {
		return nil
	}
	query := `INSERT INTO document_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	batch := &pgx.Batch{}
	for _, l := range doc.Lines {
		batch.Queue(query,
			l.ID, doc.ID, l.LineNumber, l.ProductCode, l.Description, l.Quantity,
			l.UnitPrice, l.TaxCode, l.TaxPercentage, l.NetAmount, l.TaxAmount,
		)
	}
	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for range doc.Lines {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert document line: %w", err)
		}
	}
	return nil
}

// documentArgs valores en el orden de documentColumns.
func documentArgs(d *entity.FiscalDocument) []any {
	var sealedAt *time.Time
	if d.SealedAt != nil {
		t := d.SealedAt.UTC()
		sealedAt = &t
	}
	return []any{
		d.ID, d.Series, d.SequenceNumber, string(d.DocumentType), d.IssueDate.Format("2006-01-02"), d.IssueTime,
		d.NetAmount, d.TaxAmount, d.GrandTotal, d.CustomerTaxID, d.CustomerName,
		d.ChainHash, d.PreviousChainHash, d.DocumentIdentifier, d.IsSealed, sealedAt,
		d.IsCreditNote, nullIfEmpty(d.OriginalDocumentID), string(d.CreditReasonCode), d.CreditDescription,
		d.SourceRef, d.Notes, d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	}
}
