package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// CreditNoteRequest datos de la corrección.
type CreditNoteRequest struct {
	OriginalID  string
	ReasonCode  entity.CreditReason
	Amount      decimal.Decimal // total bruto a acreditar
	Description string
}

// CreditNoteIssuer única vía para corregir un documento sellado: emite una nota
// de crédito nueva, encadenada por su cuenta, sin tocar el original.
type CreditNoteIssuer struct {
	signer *Signer
	docs   repository.FiscalDocumentRepository
	series string // "" = misma serie del original
	log    zerolog.Logger
}

// NewCreditNoteIssuer construye el emisor de notas de crédito.
func NewCreditNoteIssuer(signer *Signer, docs repository.FiscalDocumentRepository, series string, log zerolog.Logger) *CreditNoteIssuer {
	return &CreditNoteIssuer{signer: signer, docs: docs, series: series, log: log}
}

// Issue valida las precondiciones, crea el borrador y lo sella en la misma unidad.
func (c *CreditNoteIssuer) Issue(ctx context.Context, req CreditNoteRequest) (*entity.FiscalDocument, error) {
	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "debe ser mayor que cero"}
	}
	if !req.ReasonCode.Valid() {
		return nil, &domain.ValidationError{Field: "reasonCode", Reason: fmt.Sprintf("motivo desconocido %q", req.ReasonCode)}
	}

	original, err := c.docs.GetByID(ctx, req.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("obtener documento original: %w", err)
	}
	if original == nil {
		return nil, fmt.Errorf("documento original %s: %w", req.OriginalID, domain.ErrNotFound)
	}
	if err := checkEligible(original); err != nil {
		return nil, err
	}

	series := c.series
	if series == "" {
		series = original.Series
	}

	var sealed *entity.FiscalDocument
	err = c.signer.runSeries(ctx, series, func(docs repository.FiscalDocumentRepository) error {
		// el saldo se consulta bajo el bloqueo de la serie de notas de crédito
		credited, err := docs.SumCredited(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("saldo acreditado: %w", err)
		}
		remaining := original.GrandTotal.Sub(credited)
		if req.Amount.GreaterThan(remaining) {
			return &domain.ValidationError{
				Field:  "amount",
				Reason: fmt.Sprintf("excede el saldo acreditable %s", remaining.StringFixed(2)),
			}
		}

		draft := buildCreditNote(original, req, series, c.signer.clock.Now().UTC())
		if err := docs.Create(ctx, draft); err != nil {
			return fmt.Errorf("crear nota de crédito: %w", err)
		}
		sealed, err = c.signer.sealInTx(ctx, docs, draft)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("document_id", sealed.ID).
		Str("original_id", original.ID).
		Str("reason", string(req.ReasonCode)).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("nota de crédito emitida")
	c.signer.submit(ctx, sealed)
	return sealed, nil
}

// checkEligible el original debe estar sellado y no ser una nota de crédito.
func checkEligible(original *entity.FiscalDocument) error {
	if !original.IsSealed {
		return &domain.IneligibleError{DocumentID: original.ID, Reason: "el documento no está sellado"}
	}
	if original.IsCreditNote || original.DocumentType == entity.DocumentTypeCreditNote {
		return &domain.IneligibleError{DocumentID: original.ID, Reason: "no se corrige una nota de crédito con otra"}
	}
	return nil
}

// buildCreditNote reparte el importe entre base e impuesto con la misma
// proporción del original y genera una única línea de ajuste.
func buildCreditNote(original *entity.FiscalDocument, req CreditNoteRequest, series string, now time.Time) *entity.FiscalDocument {
	amount := req.Amount.Round(2)
	tax := decimal.Zero
	if original.GrandTotal.IsPositive() {
		tax = amount.Mul(original.TaxAmount).Div(original.GrandTotal).Round(2)
	}
	net := amount.Sub(tax)

	taxCode, taxPct := saft.TaxCodeNormal, decimal.NewFromInt(15)
	if len(original.Lines) > 0 {
		taxCode, taxPct = original.Lines[0].TaxCode, original.Lines[0].TaxPercentage
	} else if original.NetAmount.IsPositive() {
		taxPct = original.TaxAmount.Div(original.NetAmount).Mul(decimal.NewFromInt(100)).Round(2)
	}

	description := fmt.Sprintf("Correção de %s: %s", original.DocumentNumber(), req.ReasonCode.Description())
	if req.Description != "" {
		description += " - " + req.Description
	}

	id := uuid.New().String()
	return &entity.FiscalDocument{
		ID:                 id,
		Series:             series,
		DocumentType:       entity.DocumentTypeCreditNote,
		IssueDate:          dateOnly(now),
		IssueTime:          now.Format("15:04:05"),
		NetAmount:          net,
		TaxAmount:          tax,
		GrandTotal:         amount,
		CustomerTaxID:      original.CustomerTaxID,
		CustomerName:       original.CustomerName,
		IsCreditNote:       true,
		OriginalDocumentID: original.ID,
		CreditReasonCode:   req.ReasonCode,
		CreditDescription:  req.Description,
		Lines: []entity.DocumentLine{{
			ID:            uuid.New().String(),
			DocumentID:    id,
			LineNumber:    1,
			ProductCode:   saft.CreditAdjustmentProductCode,
			Description:   description,
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     net,
			TaxCode:       taxCode,
			TaxPercentage: taxPct,
			NetAmount:     net,
			TaxAmount:     tax,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
