package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// DocumentType tipo de documento fiscal.
type DocumentType string

const (
	DocumentTypeInvoice        DocumentType = "INVOICE"         // Fatura (FT)
	DocumentTypeInvoiceReceipt DocumentType = "INVOICE_RECEIPT" // Fatura-Recibo (FR)
	DocumentTypeCreditNote     DocumentType = "CREDIT_NOTE"     // Nota de Crédito (NC)
	DocumentTypeSalesSlip      DocumentType = "SALES_SLIP"      // Talão de Venda (TV)
)

// Code devuelve el código SAF-T de dos letras ("" si el tipo no es válido).
func (t DocumentType) Code() string {
	switch t {
	case DocumentTypeInvoice:
		return saft.InvoiceTypeFatura
	case DocumentTypeInvoiceReceipt:
		return saft.InvoiceTypeFaturaRecibo
	case DocumentTypeCreditNote:
		return saft.InvoiceTypeNotaCredito
	case DocumentTypeSalesSlip:
		return saft.InvoiceTypeTalaoVenda
	}
	return ""
}

// Valid indica si el tipo pertenece al catálogo.
func (t DocumentType) Valid() bool { return t.Code() != "" }

// CreditReason motivo de una nota de crédito.
type CreditReason string

const (
	CreditReasonReturn          CreditReason = "RETURN"           // Devolução de mercadoria
	CreditReasonPriceAdjustment CreditReason = "PRICE_ADJUSTMENT" // Ajuste de preço
	CreditReasonBillingError    CreditReason = "BILLING_ERROR"    // Erro de faturação
	CreditReasonCancellation    CreditReason = "CANCELLATION"     // Anulação da operação
	CreditReasonDiscount        CreditReason = "DISCOUNT"         // Desconto posterior
)

var creditReasonDescriptions = map[CreditReason]string{
	CreditReasonReturn:          "Devolução de mercadoria",
	CreditReasonPriceAdjustment: "Ajuste de preço",
	CreditReasonBillingError:    "Erro de faturação",
	CreditReasonCancellation:    "Anulação da operação",
	CreditReasonDiscount:        "Desconto posterior",
}

// Valid indica si el motivo pertenece al catálogo.
func (r CreditReason) Valid() bool {
	_, ok := creditReasonDescriptions[r]
	return ok
}

// Description texto en portugués usado en el SAF-T (References/Reason).
func (r CreditReason) Description() string { return creditReasonDescriptions[r] }

// FiscalDocument documento fiscal (borrador o sellado).
// Una vez IsSealed=true solo Notes puede cambiar.
type FiscalDocument struct {
	ID             string
	Series         string
	SequenceNumber int64 // 0 hasta el sellado
	DocumentType   DocumentType
	IssueDate      time.Time // solo fecha (UTC)
	IssueTime      string    // HH:MM:SS
	NetAmount      decimal.Decimal
	TaxAmount      decimal.Decimal
	GrandTotal     decimal.Decimal
	CustomerTaxID  string // vacío = Consumidor Final
	CustomerName   string // snapshot al momento de la venta

	// Campos de integridad, asignados solo al sellar.
	ChainHash          string
	PreviousChainHash  string
	DocumentIdentifier string // IUD (45 caracteres)
	IsSealed           bool
	SealedAt           *time.Time

	// Corrección.
	IsCreditNote       bool
	OriginalDocumentID string
	CreditReasonCode   CreditReason
	CreditDescription  string

	SourceRef string // referencia de la venta/orden de origen
	Notes     string // anotación libre, editable aun sellado
	Lines     []DocumentLine

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentNumber número visible del documento, p. ej. "FT A/12".
func (d *FiscalDocument) DocumentNumber() string {
	return fmt.Sprintf("%s %s/%d", d.DocumentType.Code(), d.Series, d.SequenceNumber)
}

// QRData contenido del código QR impreso en el comprobante.
func (d *FiscalDocument) QRData() string {
	return "IUD:" + d.DocumentIdentifier
}

// Clone copia profunda (líneas y SealedAt incluidos).
func (d *FiscalDocument) Clone() *FiscalDocument {
	if d == nil {
		return nil
	}
	c := *d
	if d.SealedAt != nil {
		t := *d.SealedAt
		c.SealedAt = &t
	}
	if d.Lines != nil {
		c.Lines = make([]DocumentLine, len(d.Lines))
		copy(c.Lines, d.Lines)
	}
	return &c
}
