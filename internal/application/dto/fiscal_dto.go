package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
)

// CreateDraftRequest body para POST /api/fiscal/documents (entrega de la venta finalizada).
type CreateDraftRequest struct {
	Series        string             `json:"series,omitempty"`        // vacío = serie por defecto
	DocumentType  string             `json:"document_type"`           // INVOICE | INVOICE_RECEIPT | SALES_SLIP
	IssueDate     string             `json:"issue_date,omitempty"`    // YYYY-MM-DD; vacío = hoy
	CustomerTaxID string             `json:"customer_tax_id,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	SourceRef     string             `json:"source_ref,omitempty"` // id de la orden de origen
	Notes         string             `json:"notes,omitempty"`
	Lines         []DraftLineRequest `json:"lines"`
}

// DraftLineRequest línea de la venta; los importes se calculan en el servidor.
type DraftLineRequest struct {
	ProductCode   string          `json:"product_code"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"` // sin impuesto
	TaxCode       string          `json:"tax_code,omitempty"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// CreditNoteRequest body para POST /api/fiscal/documents/:id/credit-notes.
type CreditNoteRequest struct {
	ReasonCode  string          `json:"reason_code"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// NotesRequest body para PATCH /api/fiscal/documents/:id/notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// FiscalDocumentResponse documento fiscal en respuestas.
type FiscalDocumentResponse struct {
	ID                 string                 `json:"id"`
	Number             string                 `json:"number,omitempty"` // "FT A/12", solo sellados
	Series             string                 `json:"series"`
	SequenceNumber     int64                  `json:"sequence_number"`
	DocumentType       string                 `json:"document_type"`
	IssueDate          string                 `json:"issue_date"`
	IssueTime          string                 `json:"issue_time"`
	NetAmount          string                 `json:"net_amount"`
	TaxAmount          string                 `json:"tax_amount"`
	GrandTotal         string                 `json:"grand_total"`
	CustomerTaxID      string                 `json:"customer_tax_id,omitempty"`
	CustomerName       string                 `json:"customer_name,omitempty"`
	ChainHash          string                 `json:"chain_hash,omitempty"`
	PreviousChainHash  string                 `json:"previous_chain_hash,omitempty"`
	DocumentIdentifier string                 `json:"document_identifier,omitempty"`
	QRData             string                 `json:"qr_data,omitempty"` // "IUD:<iud>"
	IsSealed           bool                   `json:"is_sealed"`
	SealedAt           *time.Time             `json:"sealed_at,omitempty"`
	IsCreditNote       bool                   `json:"is_credit_note"`
	OriginalDocumentID string                 `json:"original_document_id,omitempty"`
	CreditReasonCode   string                 `json:"credit_reason_code,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	Lines              []DocumentLineResponse `json:"lines"`
}

// DocumentLineResponse línea en la respuesta.
type DocumentLineResponse struct {
	LineNumber    int    `json:"line_number"`
	ProductCode   string `json:"product_code"`
	Description   string `json:"description"`
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	TaxCode       string `json:"tax_code"`
	TaxPercentage string `json:"tax_percentage"`
	NetAmount     string `json:"net_amount"`
	TaxAmount     string `json:"tax_amount"`
}

// VerificationResponse resultado de GET /api/fiscal/documents/:id/verify.
type VerificationResponse struct {
	DocumentID string `json:"document_id"`
	Valid      bool   `json:"valid"`
	Field      string `json:"field,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
}

// ChainReportResponse resultado de GET /api/fiscal/series/:series/verify.
type ChainReportResponse struct {
	Series    string                 `json:"series"`
	Documents int                    `json:"documents"`
	Valid     bool                   `json:"valid"`
	LastHash  string                 `json:"last_hash,omitempty"`
	Breaks    []VerificationResponse `json:"breaks,omitempty"`
}

// FromDocument mapea la entidad a la respuesta (montos con 2 decimales).
func FromDocument(d *entity.FiscalDocument) FiscalDocumentResponse {
	out := FiscalDocumentResponse{
		ID:                 d.ID,
		Series:             d.Series,
		SequenceNumber:     d.SequenceNumber,
		DocumentType:       string(d.DocumentType),
		IssueDate:          d.IssueDate.Format("2006-01-02"),
		IssueTime:          d.IssueTime,
		NetAmount:          d.NetAmount.StringFixed(2),
		TaxAmount:          d.TaxAmount.StringFixed(2),
		GrandTotal:         d.GrandTotal.StringFixed(2),
		CustomerTaxID:      d.CustomerTaxID,
		CustomerName:       d.CustomerName,
		ChainHash:          d.ChainHash,
		PreviousChainHash:  d.PreviousChainHash,
		DocumentIdentifier: d.DocumentIdentifier,
		IsSealed:           d.IsSealed,
		SealedAt:           d.SealedAt,
		IsCreditNote:       d.IsCreditNote,
		OriginalDocumentID: d.OriginalDocumentID,
		CreditReasonCode:   string(d.CreditReasonCode),
		Notes:              d.Notes,
		Lines:              make([]DocumentLineResponse, 0, len(d.Lines)),
	}
	if d.IsSealed {
		out.Number = d.DocumentNumber()
		out.QRData = d.QRData()
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, DocumentLineResponse{
			LineNumber:    l.LineNumber,
			ProductCode:   l.ProductCode,
			Description:   l.Description,
			Quantity:      l.Quantity.String(),
			UnitPrice:     l.UnitPrice.StringFixed(2),
			TaxCode:       l.TaxCode,
			TaxPercentage: l.TaxPercentage.StringFixed(2),
			NetAmount:     l.NetAmount.StringFixed(2),
			TaxAmount:     l.TaxAmount.StringFixed(2),
		})
	}
	return out
}

// FromVerification mapea un resultado de verificación.
func FromVerification(r fiscal.VerificationResult) VerificationResponse {
	return VerificationResponse{DocumentID: r.DocumentID, Valid: r.Valid, Field: r.Field, Expected: r.Expected, Actual: r.Actual}
}

// FromChainReport mapea el informe de una serie.
func FromChainReport(r fiscal.ChainReport) ChainReportResponse {
	out := ChainReportResponse{Series: r.Series, Documents: r.Documents, Valid: r.Valid, LastHash: r.LastHash}
	for _, b := range r.Breaks {
		out.Breaks = append(out.Breaks, FromVerification(b))
	}
	return out
}
