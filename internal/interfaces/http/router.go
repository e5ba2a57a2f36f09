package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents    *billing.DocumentUseCase
	Signer       *billing.Signer
	Credits      *billing.CreditNoteIssuer
	Verification *billing.VerificationUseCase
	Exporter     *billing.Exporter
	JWTSecret    string
	JWTIssuer    string // vacío: no se exige iss
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	var jwtOpts []jwt.ParseOption
	if deps.JWTIssuer != "" {
		jwtOpts = append(jwtOpts, jwt.WithIssuer(deps.JWTIssuer))
	}
	fiscal := api.Group("/fiscal", AuthMiddleware(deps.JWTSecret, jwtOpts...))
	h := NewFiscalHandler(deps.Documents, deps.Signer, deps.Credits, deps.Verification, deps.Exporter)

	sellers := RequireRole(RoleAdmin, RoleSeller)
	readers := RequireRole(RoleAdmin, RoleSeller, RoleAuditor)
	auditors := RequireRole(RoleAdmin, RoleAuditor)

	docs := fiscal.Group("/documents")
	docs.Post("/", sellers, h.CreateDraft)
	docs.Get("/:id", readers, h.Get)
	docs.Post("/:id/seal", sellers, h.Seal)
	docs.Patch("/:id/notes", sellers, h.AnnotateNotes)
	docs.Delete("/:id", sellers, h.Discard)
	docs.Get("/:id/verify", readers, h.VerifyDocument)
	docs.Post("/:id/credit-notes", RequireRole(RoleAdmin), h.IssueCreditNote)

	series := fiscal.Group("/series")
	series.Get("/:series/verify", auditors, h.VerifySeries)
	series.Get("/:series/report.pdf", auditors, h.SeriesReport)

	fiscal.Get("/exports/saft", auditors, h.ExportSAFT)
}
