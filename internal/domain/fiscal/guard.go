package fiscal

import (
	"time"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

type protectedField struct {
	name  string
	equal func(a, b *entity.FiscalDocument) bool
}

// protectedFields lista fija y ordenada: se reporta el primer campo que difiera.
// Notes es el único campo fuera de la lista.
var protectedFields = []protectedField{
	{"documentId", func(a, b *entity.FiscalDocument) bool { return a.ID == b.ID }},
	{"series", func(a, b *entity.FiscalDocument) bool { return a.Series == b.Series }},
	{"sequenceNumber", func(a, b *entity.FiscalDocument) bool { return a.SequenceNumber == b.SequenceNumber }},
	{"documentType", func(a, b *entity.FiscalDocument) bool { return a.DocumentType == b.DocumentType }},
	{"issueDate", func(a, b *entity.FiscalDocument) bool { return sameDate(a.IssueDate, b.IssueDate) }},
	{"issueTime", func(a, b *entity.FiscalDocument) bool { return a.IssueTime == b.IssueTime }},
	{"netAmount", func(a, b *entity.FiscalDocument) bool { return a.NetAmount.Equal(b.NetAmount) }},
	{"taxAmount", func(a, b *entity.FiscalDocument) bool { return a.TaxAmount.Equal(b.TaxAmount) }},
	{"grandTotal", func(a, b *entity.FiscalDocument) bool { return a.GrandTotal.Equal(b.GrandTotal) }},
	{"customerTaxId", func(a, b *entity.FiscalDocument) bool { return a.CustomerTaxID == b.CustomerTaxID }},
	{"customerName", func(a, b *entity.FiscalDocument) bool { return a.CustomerName == b.CustomerName }},
	{"chainHash", func(a, b *entity.FiscalDocument) bool { return a.ChainHash == b.ChainHash }},
	{"previousChainHash", func(a, b *entity.FiscalDocument) bool { return a.PreviousChainHash == b.PreviousChainHash }},
	{"documentIdentifier", func(a, b *entity.FiscalDocument) bool { return a.DocumentIdentifier == b.DocumentIdentifier }},
	{"isSealed", func(a, b *entity.FiscalDocument) bool { return a.IsSealed == b.IsSealed }},
	{"sealedAt", func(a, b *entity.FiscalDocument) bool { return sameInstant(a.SealedAt, b.SealedAt) }},
	{"isCreditNote", func(a, b *entity.FiscalDocument) bool { return a.IsCreditNote == b.IsCreditNote }},
	{"originalDocumentRef", func(a, b *entity.FiscalDocument) bool { return a.OriginalDocumentID == b.OriginalDocumentID }},
	{"creditReasonCode", func(a, b *entity.FiscalDocument) bool { return a.CreditReasonCode == b.CreditReasonCode }},
	{"creditDescription", func(a, b *entity.FiscalDocument) bool { return a.CreditDescription == b.CreditDescription }},
	{"sourceRef", func(a, b *entity.FiscalDocument) bool { return a.SourceRef == b.SourceRef }},
	{"lines", func(a, b *entity.FiscalDocument) bool { return sameLines(a.Lines, b.Lines) }},
}

// ProtectedFields nombres de los campos protegidos, en orden de comparación.
func ProtectedFields() []string {
	out := make([]string, len(protectedFields))
	for i, f := range protectedFields {
		out[i] = f.name
	}
	return out
}

// Guard compuerta de inmutabilidad. Todo camino de escritura sobre un documento
// fiscal (repositorios incluidos) debe pasar por aquí.
type Guard struct{}

// NewGuard construye la guardia.
func NewGuard() *Guard { return &Guard{} }

// BeforeUpdate permite cualquier cambio en borradores; en documentos sellados
// rechaza el primer campo protegido que difiera.
func (g *Guard) BeforeUpdate(existing, incoming *entity.FiscalDocument) error {
	if existing == nil || !existing.IsSealed {
		return nil
	}
	if incoming == nil {
		return &domain.ImmutableDeletionError{DocumentID: existing.ID}
	}
	for _, f := range protectedFields {
		if !f.equal(existing, incoming) {
			return &domain.ProtectedFieldError{DocumentID: existing.ID, Field: f.name}
		}
	}
	return nil
}

// BeforeDelete rechaza siempre la eliminación de un documento sellado.
func (g *Guard) BeforeDelete(existing *entity.FiscalDocument) error {
	if existing == nil || !existing.IsSealed {
		return nil
	}
	return &domain.ImmutableDeletionError{DocumentID: existing.ID}
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameLines(a, b []entity.DocumentLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
