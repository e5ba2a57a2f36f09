package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

func TestCreateDraft_CalculaImportes(t *testing.T) {
	e := newEnv(t, nil)
	req := sale("2025-01-01", 3, "CV 200 000 002")
	req.Lines = append(req.Lines, dto.DraftLineRequest{
		ProductCode: "AGUA", Quantity: decimal.RequireFromString("1.5"),
		UnitPrice: decimal.RequireFromString("3.33"), TaxPercentage: decimal.NewFromInt(15),
	})

	d, err := e.drafts.CreateDraft(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "A", d.Series, "serie por defecto")
	assert.Equal(t, "200000002", d.CustomerTaxID)
	assert.False(t, d.IsSealed)
	require.Len(t, d.Lines, 2)
	// 1.5 × 3.33 = 4.995 → 5.00; IVA 0.75
	assert.Equal(t, "5.00", d.Lines[1].NetAmount.StringFixed(2))
	assert.Equal(t, "0.75", d.Lines[1].TaxAmount.StringFixed(2))
	assert.Equal(t, "155.00", d.NetAmount.StringFixed(2))
	assert.Equal(t, "23.25", d.TaxAmount.StringFixed(2))
	assert.Equal(t, "178.25", d.GrandTotal.StringFixed(2))
	assert.Equal(t, "NOR", d.Lines[0].TaxCode)
}

func TestCreateDraft_Rechazos(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	cases := map[string]func(r *dto.CreateDraftRequest){
		"sin líneas":       func(r *dto.CreateDraftRequest) { r.Lines = nil },
		"nota de crédito":  func(r *dto.CreateDraftRequest) { r.DocumentType = string(entity.DocumentTypeCreditNote) },
		"tipo desconocido": func(r *dto.CreateDraftRequest) { r.DocumentType = "RECIBO" },
		"fecha inválida":   func(r *dto.CreateDraftRequest) { r.IssueDate = "01/01/2025" },
		"cantidad cero":    func(r *dto.CreateDraftRequest) { r.Lines[0].Quantity = decimal.Zero },
		"precio negativo":  func(r *dto.CreateDraftRequest) { r.Lines[0].UnitPrice = decimal.NewFromInt(-1) },
		"sin producto":     func(r *dto.CreateDraftRequest) { r.Lines[0].ProductCode = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := sale("2025-01-01", 1, "")
			mutate(&req)
			_, err := e.drafts.CreateDraft(ctx, req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateDraft_AcumulaErroresDeLinea(t *testing.T) {
	e := newEnv(t, nil)
	req := sale("2025-01-01", 1, "")
	req.Lines = append(req.Lines, dto.DraftLineRequest{ProductCode: "", Quantity: decimal.Zero, TaxPercentage: decimal.NewFromInt(150)})
	req.Lines[0].UnitPrice = decimal.NewFromInt(-5)

	_, err := e.drafts.CreateDraft(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	msg := err.Error()
	for _, field := range []string{"lines[0].unit_price", "lines[1].product_code", "lines[1].quantity", "lines[1].tax_percentage"} {
		assert.Contains(t, msg, field, "se reportan todos los campos inválidos")
	}
}

func TestAnnotateNotes_PermitidoEnSellado(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sealed := e.sealSale(t, "2025-01-01", 2)

	updated, err := e.drafts.AnnotateNotes(ctx, sealed.ID, "entregado en mano")
	require.NoError(t, err)
	assert.Equal(t, "entregado en mano", updated.Notes)
	assert.Equal(t, sealed.ChainHash, updated.ChainHash)

	stored, err := e.drafts.Get(ctx, sealed.ID)
	require.NoError(t, err)
	assert.Equal(t, "entregado en mano", stored.Notes)
}

func TestSellado_CambioDeTotalRechazado(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sealed := e.sealSale(t, "2025-01-01", 2)

	tampered := sealed.Clone()
	tampered.GrandTotal = decimal.RequireFromString("1.00")
	err := e.docs.Update(ctx, tampered)

	var protected *domain.ProtectedFieldError
	require.ErrorAs(t, err, &protected)
	assert.Equal(t, "grandTotal", protected.Field)
}

func TestDiscard(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	draft, err := e.drafts.CreateDraft(ctx, sale("2025-01-01", 1, ""))
	require.NoError(t, err)
	require.NoError(t, e.drafts.Discard(ctx, draft.ID))
	_, err = e.drafts.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sealed := e.sealSale(t, "2025-01-01", 1)
	assert.ErrorIs(t, e.drafts.Discard(ctx, sealed.ID), domain.ErrImmutableDeletion)
}
