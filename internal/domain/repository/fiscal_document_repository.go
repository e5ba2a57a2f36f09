package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

// PreviousLookup consulta mínima que necesita el resolver de la cadena.
type PreviousLookup interface {
	// FindLatestSealed devuelve el último documento sellado de la serie con
	// sealed_at <= at, excluyendo excludeID, ordenado por sealed_at DESC y
	// sequence_number DESC. (nil, nil) si no existe.
	FindLatestSealed(ctx context.Context, series string, at time.Time, excludeID string) (*entity.FiscalDocument, error)
}

// FiscalDocumentRepository puerto de persistencia de documentos fiscales y sus líneas.
// Update y Delete ejecutan la guardia de inmutabilidad antes de escribir.
type FiscalDocumentRepository interface {
	PreviousLookup
	// Create persiste un borrador (IsSealed=false) con sus líneas.
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	// GetByID documento con líneas; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	// Update reescribe el documento; las líneas solo se reemplazan mientras es borrador.
	Update(ctx context.Context, doc *entity.FiscalDocument) error
	// Delete elimina un borrador.
	Delete(ctx context.Context, id string) error
	// MaxSequence mayor número de secuencia sellado de la serie (0 si no hay).
	MaxSequence(ctx context.Context, series string) (int64, error)
	// ListSealedByIssueDate documentos sellados con issue_date en [start, end],
	// ordenados por serie y secuencia ascendente.
	ListSealedByIssueDate(ctx context.Context, start, end time.Time) ([]*entity.FiscalDocument, error)
	// ListSealedBySeries cadena completa de la serie en orden de secuencia.
	ListSealedBySeries(ctx context.Context, series string) ([]*entity.FiscalDocument, error)
	// SumCredited total bruto de las notas de crédito selladas que referencian originalID.
	SumCredited(ctx context.Context, originalID string) (decimal.Decimal, error)
}
