package fiscal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// ValidateDraft comprueba que el borrador pueda sellarse.
// Si falta un total o la fecha devuelve *domain.InvalidStateError; el resto de
// problemas se acumulan como *domain.ValidationError unidos con errors.Join.
func ValidateDraft(doc *entity.FiscalDocument) error {
	if doc == nil {
		return &domain.ValidationError{Field: "document", Reason: "documento nulo"}
	}
	if doc.IssueDate.IsZero() {
		return &domain.InvalidStateError{DocumentID: doc.ID, Field: "issueDate"}
	}
	if doc.GrandTotal.IsZero() {
		return &domain.InvalidStateError{DocumentID: doc.ID, Field: "grandTotal"}
	}

	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, &domain.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if doc.Series == "" {
		invalid("series", "la serie es requerida")
	}
	if !doc.DocumentType.Valid() {
		invalid("documentType", "tipo desconocido %q", doc.DocumentType)
	}
	for _, amt := range []struct {
		field string
		value decimal.Decimal
	}{
		{"netAmount", doc.NetAmount},
		{"taxAmount", doc.TaxAmount},
		{"grandTotal", doc.GrandTotal},
	} {
		if amt.value.IsNegative() {
			invalid(amt.field, "no puede ser negativo (%s)", amt.value.StringFixed(2))
		}
	}
	if expected := doc.NetAmount.Add(doc.TaxAmount).Round(2); !doc.GrandTotal.Round(2).Equal(expected) {
		invalid("grandTotal", "%s no coincide con net + tax (%s)", doc.GrandTotal.StringFixed(2), expected.StringFixed(2))
	}

	// Totales coherentes con las líneas, cuando las hay.
	if len(doc.Lines) > 0 {
		var sumNet, sumTax decimal.Decimal
		for _, l := range doc.Lines {
			if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() || l.NetAmount.IsNegative() || l.TaxAmount.IsNegative() {
				invalid("lines", "línea %d con importes negativos", l.LineNumber)
			}
			sumNet = sumNet.Add(l.NetAmount)
			sumTax = sumTax.Add(l.TaxAmount)
		}
		if !doc.NetAmount.Round(2).Equal(sumNet.Round(2)) {
			invalid("netAmount", "%s no coincide con la suma de líneas (%s)", doc.NetAmount.StringFixed(2), sumNet.StringFixed(2))
		}
		if !doc.TaxAmount.Round(2).Equal(sumTax.Round(2)) {
			invalid("taxAmount", "%s no coincide con la suma de impuestos de líneas (%s)", doc.TaxAmount.StringFixed(2), sumTax.StringFixed(2))
		}
	}

	if !saft.IsFinalConsumer(doc.CustomerTaxID) {
		if err := saft.ValidateNIF(doc.CustomerTaxID); err != nil {
			invalid("customerTaxId", "%v", err)
		}
	}

	isCreditType := doc.DocumentType == entity.DocumentTypeCreditNote
	switch {
	case doc.IsCreditNote != isCreditType:
		invalid("isCreditNote", "no coincide con el tipo %s", doc.DocumentType)
	case doc.IsCreditNote:
		if doc.OriginalDocumentID == "" {
			invalid("originalDocumentRef", "requerido en una nota de crédito")
		}
		if !doc.CreditReasonCode.Valid() {
			invalid("creditReasonCode", "motivo desconocido %q", doc.CreditReasonCode)
		}
	default:
		if doc.OriginalDocumentID != "" || doc.CreditReasonCode != "" {
			invalid("originalDocumentRef", "solo las notas de crédito referencian otro documento")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
