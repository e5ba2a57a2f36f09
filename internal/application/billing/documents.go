package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

var hundred = decimal.NewFromInt(100)

// DocumentUseCase entrada desde la venta finalizada y operaciones no fiscales
// (lectura, anotación, descarte de borradores).
type DocumentUseCase struct {
	docs          repository.FiscalDocumentRepository
	defaultSeries string
	clock         Clock
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(docs repository.FiscalDocumentRepository, defaultSeries string, clock Clock) *DocumentUseCase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DocumentUseCase{docs: docs, defaultSeries: defaultSeries, clock: clock}
}

// CreateDraft convierte la venta en un borrador con importes calculados por línea.
// Las notas de crédito no se crean aquí sino con CreditNoteIssuer.
func (uc *DocumentUseCase) CreateDraft(ctx context.Context, in dto.CreateDraftRequest) (*entity.FiscalDocument, error) {
	docType := entity.DocumentType(in.DocumentType)
	if docType == "" {
		docType = entity.DocumentTypeInvoiceReceipt
	}
	if !docType.Valid() {
		return nil, &domain.ValidationError{Field: "document_type", Reason: fmt.Sprintf("tipo desconocido %q", in.DocumentType)}
	}
	if docType == entity.DocumentTypeCreditNote {
		return nil, &domain.ValidationError{Field: "document_type", Reason: "las notas de crédito se emiten sobre un documento sellado"}
	}
	if len(in.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "la venta debe tener al menos una línea"}
	}

	now := uc.clock.Now().UTC()
	issueDate := dateOnly(now)
	if in.IssueDate != "" {
		d, err := time.Parse("2006-01-02", in.IssueDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "issue_date", Reason: "formato esperado YYYY-MM-DD"}
		}
		issueDate = d
	}
	series := in.Series
	if series == "" {
		series = uc.defaultSeries
	}

	doc := &entity.FiscalDocument{
		ID:            uuid.New().String(),
		Series:        series,
		DocumentType:  docType,
		IssueDate:     issueDate,
		IssueTime:     now.Format("15:04:05"),
		CustomerTaxID: saft.NormalizeNIF(in.CustomerTaxID),
		CustomerName:  in.CustomerName,
		SourceRef:     in.SourceRef,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.CustomerTaxID != "" && doc.CustomerTaxID == "" {
		return nil, &domain.ValidationError{Field: "customer_tax_id", Reason: "NIF sin dígitos"}
	}

	// Se acumulan todos los errores de línea para devolverlos juntos.
	var errs []error
	for i, l := range in.Lines {
		if err := validateLine(i, l); err != nil {
			errs = append(errs, err)
			continue
		}
		taxCode := l.TaxCode
		if taxCode == "" {
			taxCode = saft.TaxCodeNormal
		}
		net := l.Quantity.Mul(l.UnitPrice).Round(2)
		tax := net.Mul(l.TaxPercentage).Div(hundred).Round(2)
		doc.Lines = append(doc.Lines, entity.DocumentLine{
			ID:            uuid.New().String(),
			DocumentID:    doc.ID,
			LineNumber:    i + 1,
			ProductCode:   l.ProductCode,
			Description:   l.Description,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			TaxCode:       taxCode,
			TaxPercentage: l.TaxPercentage,
			NetAmount:     net,
			TaxAmount:     tax,
		})
		doc.NetAmount = doc.NetAmount.Add(net)
		doc.TaxAmount = doc.TaxAmount.Add(tax)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	doc.GrandTotal = doc.NetAmount.Add(doc.TaxAmount)

	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("crear borrador: %w", err)
	}
	return doc, nil
}

// Get devuelve el documento o domain.ErrNotFound.
func (uc *DocumentUseCase) Get(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener documento: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// AnnotateNotes cambia la anotación libre; permitido también en documentos sellados.
func (uc *DocumentUseCase) AnnotateNotes(ctx context.Context, id, notes string) (*entity.FiscalDocument, error) {
	doc, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := doc.Clone()
	updated.Notes = notes
	updated.UpdatedAt = uc.clock.Now().UTC()
	if err := uc.docs.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Discard elimina un borrador. El repositorio rechaza los sellados.
func (uc *DocumentUseCase) Discard(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	return uc.docs.Delete(ctx, id)
}

func validateLine(i int, l dto.DraftLineRequest) error {
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
	var errs []error
	if l.ProductCode == "" {
		errs = append(errs, &domain.ValidationError{Field: field("product_code"), Reason: "requerido"})
	}
	if !l.Quantity.IsPositive() {
		errs = append(errs, &domain.ValidationError{Field: field("quantity"), Reason: "debe ser mayor que cero"})
	}
	if l.UnitPrice.IsNegative() {
		errs = append(errs, &domain.ValidationError{Field: field("unit_price"), Reason: "importe negativo"})
	}
	if l.TaxPercentage.IsNegative() || l.TaxPercentage.GreaterThan(hundred) {
		errs = append(errs, &domain.ValidationError{Field: field("tax_percentage"), Reason: "fuera de 0..100"})
	}
	return errors.Join(errs...)
}
