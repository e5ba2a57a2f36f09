package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// FiscalHandler rutas /api/fiscal (protegido).
type FiscalHandler struct {
	documents    *billing.DocumentUseCase
	signer       *billing.Signer
	credits      *billing.CreditNoteIssuer
	verification *billing.VerificationUseCase
	exporter     *billing.Exporter
}

// NewFiscalHandler construye el handler.
func NewFiscalHandler(
	documents *billing.DocumentUseCase,
	signer *billing.Signer,
	credits *billing.CreditNoteIssuer,
	verification *billing.VerificationUseCase,
	exporter *billing.Exporter,
) *FiscalHandler {
	return &FiscalHandler{
		documents:    documents,
		signer:       signer,
		credits:      credits,
		verification: verification,
		exporter:     exporter,
	}
}

// CreateDraft recibe la venta finalizada y crea el borrador.
// POST /api/fiscal/documents
func (h *FiscalHandler) CreateDraft(c *fiber.Ctx) error {
	var in dto.CreateDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.documents.CreateDraft(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// Get GET /api/fiscal/documents/:id
func (h *FiscalHandler) Get(c *fiber.Ctx) error {
	doc, err := h.documents.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// Seal finaliza y sella el borrador.
// POST /api/fiscal/documents/:id/seal
func (h *FiscalHandler) Seal(c *fiber.Ctx) error {
	doc, err := h.signer.Sign(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// AnnotateNotes PATCH /api/fiscal/documents/:id/notes
func (h *FiscalHandler) AnnotateNotes(c *fiber.Ctx) error {
	var in dto.NotesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.documents.AnnotateNotes(c.UserContext(), c.Params("id"), in.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// Discard elimina un borrador; un sellado responde 409 IMMUTABLE_DELETION.
// DELETE /api/fiscal/documents/:id
func (h *FiscalHandler) Discard(c *fiber.Ctx) error {
	if err := h.documents.Discard(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VerifyDocument GET /api/fiscal/documents/:id/verify
func (h *FiscalHandler) VerifyDocument(c *fiber.Ctx) error {
	res, err := h.verification.VerifyDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromVerification(res))
}

// IssueCreditNote POST /api/fiscal/documents/:id/credit-notes
func (h *FiscalHandler) IssueCreditNote(c *fiber.Ctx) error {
	var in dto.CreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.credits.Issue(c.UserContext(), billing.CreditNoteRequest{
		OriginalID:  c.Params("id"),
		ReasonCode:  entity.CreditReason(in.ReasonCode),
		Amount:      in.Amount,
		Description: in.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// VerifySeries GET /api/fiscal/series/:series/verify
func (h *FiscalHandler) VerifySeries(c *fiber.Ctx) error {
	report, err := h.verification.VerifyChain(c.UserContext(), c.Params("series"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromChainReport(report))
}

// SeriesReport GET /api/fiscal/series/:series/report.pdf
func (h *FiscalHandler) SeriesReport(c *fiber.Ctx) error {
	series := c.Params("series")
	out, err := h.verification.ChainReportPDF(c.UserContext(), series)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+saft.ChainReportFileName(series)+`"`)
	return c.Send(out)
}

// ExportSAFT GET /api/fiscal/exports/saft?start=YYYY-MM-DD&end=YYYY-MM-DD&format=xml|zip
func (h *FiscalHandler) ExportSAFT(c *fiber.Ctx) error {
	start, err := parseDateQuery(c, "start")
	if err != nil {
		return writeError(c, err)
	}
	end, err := parseDateQuery(c, "end")
	if err != nil {
		return writeError(c, err)
	}
	art, err := h.exporter.Export(c.UserContext(), start, end, billing.ExportFormat(c.Query("format", string(billing.ExportXML))))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+art.Filename+`"`)
	c.Set("X-Content-SHA256", art.Digest)
	c.Set("X-Document-Count", strconv.Itoa(art.Documents))
	return c.Send(art.Content)
}

func parseDateQuery(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: key, Reason: "requerido (YYYY-MM-DD)"}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: key, Reason: "formato esperado YYYY-MM-DD"}
	}
	return t, nil
}
