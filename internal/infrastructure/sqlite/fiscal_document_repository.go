package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

// FiscalDocumentRepo implementación de FiscalDocumentRepository (usable con db o tx).
type FiscalDocumentRepo struct {
	q     Querier
	guard *fiscal.Guard
}

// NewFiscalDocumentRepository construye el adaptador. Pasar db o tx (Querier).
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q, guard: fiscal.NewGuard()}
}

// Create persiste el borrador y sus líneas.
func (r *FiscalDocumentRepo) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	return withTx(ctx, r.q, func(q Querier) error {
		query := `INSERT INTO fiscal_documents (` + documentColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := q.ExecContext(ctx, query, documentArgs(doc)...); err != nil {
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
	return getByID(ctx, r.q, id)
}

// Update pasa por la guardia de inmutabilidad antes de escribir. Las líneas solo
// se reemplazan mientras el documento almacenado es borrador.
func (r *FiscalDocumentRepo) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	return withTx(ctx, r.q, func(q Querier) error {
		existing, err := getByID(ctx, q, doc.ID)
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
			series = ?, sequence_number = ?, document_type = ?, issue_date = ?, issue_time = ?,
			net_amount = ?, tax_amount = ?, grand_total = ?, customer_tax_id = ?, customer_name = ?,
			chain_hash = ?, previous_chain_hash = ?, document_identifier = ?, is_sealed = ?, sealed_at = ?,
			is_credit_note = ?, original_document_id = ?, credit_reason_code = ?, credit_description = ?,
			source_ref = ?, notes = ?, updated_at = ?
			WHERE id = ?`
		// documentArgs: id primero y created_at/updated_at al final
		params := append([]any{}, documentArgs(doc)[1:22]...)
		params = append(params, formatInstant(doc.UpdatedAt), doc.ID)
		if _, err := q.ExecContext(ctx, query, params...); err != nil {
			if isUniqueViolation(err) {
				return &domain.SequenceConflictError{Series: doc.Series, Reason: "número o predecesor ya sellado en la serie"}
			}
			return fmt.Errorf("update fiscal document: %w", err)
		}

		if existing.IsSealed {
			return nil
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM document_lines WHERE document_id = ?`, doc.ID); err != nil {
			return fmt.Errorf("delete document lines: %w", err)
		}
		return insertLines(ctx, q, doc)
	})
}

// Delete elimina un borrador; los sellados los rechaza la guardia.
func (r *FiscalDocumentRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.q, func(q Querier) error {
		existing, err := getByID(ctx, q, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
		}
		if err := r.guard.BeforeDelete(existing); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM fiscal_documents WHERE id = ? AND is_sealed = 0`, id); err != nil {
			return fmt.Errorf("delete fiscal document: %w", err)
		}
		return nil
	})
}

// FindLatestSealed último sellado de la serie con sealed_at <= at.
func (r *FiscalDocumentRepo) FindLatestSealed(ctx context.Context, series string, at time.Time, excludeID string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE series = ? AND is_sealed = 1 AND sealed_at <= ? AND id <> ?
		ORDER BY sealed_at DESC, sequence_number DESC
		LIMIT 1`
	docs, err := listDocuments(ctx, r.q, query, series, formatInstant(at), excludeID)
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
	var max int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM fiscal_documents WHERE series = ? AND is_sealed = 1`,
		series,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}
	return max, nil
}

// ListSealedByIssueDate sellados con issue_date en [start, end].
func (r *FiscalDocumentRepo) ListSealedByIssueDate(ctx context.Context, start, end time.Time) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE is_sealed = 1 AND issue_date >= ? AND issue_date <= ?
		ORDER BY series, sequence_number`
	docs, err := listDocuments(ctx, r.q, query, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list sealed by issue date: %w", err)
	}
	return docs, nil
}

// ListSealedBySeries cadena completa de la serie.
func (r *FiscalDocumentRepo) ListSealedBySeries(ctx context.Context, series string) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE is_sealed = 1 AND series = ?
		ORDER BY sequence_number`
	docs, err := listDocuments(ctx, r.q, query, series)
	if err != nil {
		return nil, fmt.Errorf("list sealed by series: %w", err)
	}
	return docs, nil
}

// SumCredited suma exacta (decimal) de las notas de crédito selladas del original.
func (r *FiscalDocumentRepo) SumCredited(ctx context.Context, originalID string) (decimal.Decimal, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT grand_total FROM fiscal_documents
		 WHERE original_document_id = ? AND is_credit_note = 1 AND is_sealed = 1`,
		originalID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credited: %w", err)
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan credited amount: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func getByID(ctx context.Context, q Querier, id string) (*entity.FiscalDocument, error) {
	docs, err := listDocuments(ctx, q, `SELECT `+documentColumns+` FROM fiscal_documents WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get fiscal document: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// listDocuments lee las cabeceras y después las líneas. Con una sola conexión
// las filas deben cerrarse antes de la segunda consulta.
func listDocuments(ctx context.Context, q Querier, query string, args ...any) ([]*entity.FiscalDocument, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var docs []*entity.FiscalDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, d := range docs {
		if d.Lines, err = loadLines(ctx, q, d.ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func scanDocument(rows *sql.Rows) (*entity.FiscalDocument, error) {
	var (
		d                  entity.FiscalDocument
		docType, reason    string
		issueDate          string
		sealedAt, original sql.NullString
		isSealed, isCredit int
		createdAt, updated string
	)
	err := rows.Scan(
		&d.ID, &d.Series, &d.SequenceNumber, &docType, &issueDate, &d.IssueTime,
		&d.NetAmount, &d.TaxAmount, &d.GrandTotal, &d.CustomerTaxID, &d.CustomerName,
		&d.ChainHash, &d.PreviousChainHash, &d.DocumentIdentifier, &isSealed, &sealedAt,
		&isCredit, &original, &reason, &d.CreditDescription,
		&d.SourceRef, &d.Notes, &createdAt, &updated,
	)
	if err != nil {
		return nil, fmt.Errorf("scan fiscal document: %w", err)
	}
	d.DocumentType = entity.DocumentType(docType)
	d.CreditReasonCode = entity.CreditReason(reason)
	d.IsSealed = isSealed == 1
	d.IsCreditNote = isCredit == 1
	d.OriginalDocumentID = original.String

	if d.IssueDate, err = time.Parse(dateLayout, issueDate); err != nil {
		return nil, fmt.Errorf("parse issue_date %q: %w", issueDate, err)
	}
	if sealedAt.Valid {
		t, err := parseInstant(sealedAt.String)
		if err != nil {
			return nil, err
		}
		d.SealedAt = &t
	}
	if d.CreatedAt, err = parseInstant(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseInstant(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

func loadLines(ctx context.Context, q Querier, documentID string) ([]entity.DocumentLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM document_lines WHERE document_id = ? ORDER BY line_number`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.DocumentLine
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.LineNumber, &l.ProductCode, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.TaxCode, &l.TaxPercentage, &l.NetAmount, &l.TaxAmount,
		); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func insertLines(ctx context.Context, q Querier, doc *entity.FiscalDocument) error {
	query := `INSERT INTO document_lines (` + lineColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, l := range doc.Lines {
		_, err := q.ExecContext(ctx, query,
			l.ID, doc.ID, l.LineNumber, l.ProductCode, l.Description, l.Quantity,
			l.UnitPrice, l.TaxCode, l.TaxPercentage, l.NetAmount, l.TaxAmount,
		)
		if err != nil {
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
	var sealedAt any
	if d.SealedAt != nil {
		sealedAt = formatInstant(*d.SealedAt)
	}
	return []any{
		d.ID, d.Series, d.SequenceNumber, string(d.DocumentType), d.IssueDate.Format(dateLayout), d.IssueTime,
		d.NetAmount, d.TaxAmount, d.GrandTotal, d.CustomerTaxID, d.CustomerName,
		d.ChainHash, d.PreviousChainHash, d.DocumentIdentifier, boolInt(d.IsSealed), sealedAt,
		boolInt(d.IsCreditNote), nullIfEmpty(d.OriginalDocumentID), string(d.CreditReasonCode), d.CreditDescription,
		d.SourceRef, d.Notes, formatInstant(d.CreatedAt), formatInstant(d.UpdatedAt),
	}
}
