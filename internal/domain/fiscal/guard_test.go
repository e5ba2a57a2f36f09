package fiscal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
)

func sealedDoc() *entity.FiscalDocument {
	sealedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &entity.FiscalDocument{
		ID:                 "doc-1",
		Series:             "A",
		SequenceNumber:     1,
		DocumentType:       entity.DocumentTypeInvoice,
		IssueDate:          date(2025, 1, 1),
		IssueTime:          "12:00:00",
		NetAmount:          decimal.RequireFromString("100.00"),
		TaxAmount:          decimal.RequireFromString("15.00"),
		GrandTotal:         decimal.RequireFromString("115.00"),
		ChainHash:          testHash1,
		PreviousChainHash:  fiscal.ZeroHash,
		DocumentIdentifier: "CV20250101123456789FT000000011DF6D1176D9FD970",
		IsSealed:           true,
		SealedAt:           &sealedAt,
		Lines: []entity.DocumentLine{{
			ID: "l1", LineNumber: 1, ProductCode: "CAFE", Description: "Café",
			Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("100"),
			TaxCode: "NOR", TaxPercentage: decimal.NewFromInt(15),
			NetAmount: decimal.RequireFromString("100"), TaxAmount: decimal.RequireFromString("15"),
		}},
	}
}

func TestGuard_SelladoRechazaCambioDeTotal(t *testing.T) {
	g := fiscal.NewGuard()
	existing := sealedDoc()

	for _, v := range []string{"115.01", "0", "1000", "114.99"} {
		incoming := existing.Clone()
		incoming.GrandTotal = decimal.RequireFromString(v)

		err := g.BeforeUpdate(existing, incoming)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProtectedField)

		var pf *domain.ProtectedFieldError
		require.True(t, errors.As(err, &pf))
		assert.Equal(t, "grandTotal", pf.Field, "debe nombrar el campo protegido")
	}
}

func TestGuard_SelladoPermiteSoloNotas(t *testing.T) {
	g := fiscal.NewGuard()
	existing := sealedDoc()
	incoming := existing.Clone()
	incoming.Notes = "cliente pidió copia"
	incoming.UpdatedAt = time.Now()

	assert.NoError(t, g.BeforeUpdate(existing, incoming))
}

func TestGuard_MismoValorDistintaRepresentacion(t *testing.T) {
	g := fiscal.NewGuard()
	existing := sealedDoc()
	incoming := existing.Clone()
	incoming.GrandTotal = decimal.RequireFromString("115.0000")

	assert.NoError(t, g.BeforeUpdate(existing, incoming), "115.0000 es el mismo valor que 115.00")
}

func TestGuard_ReportaPrimerCampoProtegido(t *testing.T) {
	g := fiscal.NewGuard()
	existing := sealedDoc()
	incoming := existing.Clone()
	incoming.ChainHash = fiscal.ZeroHash
	incoming.Series = "B"

	var pf *domain.ProtectedFieldError
	require.True(t, errors.As(g.BeforeUpdate(existing, incoming), &pf))
	assert.Equal(t, "series", pf.Field, "series va antes que chainHash en la lista")
}

func TestGuard_CadaCampoProtegido(t *testing.T) {
	mutations := map[string]func(d *entity.FiscalDocument){
		"sequenceNumber":      func(d *entity.FiscalDocument) { d.SequenceNumber = 2 },
		"documentType":        func(d *entity.FiscalDocument) { d.DocumentType = entity.DocumentTypeSalesSlip },
		"issueDate":           func(d *entity.FiscalDocument) { d.IssueDate = date(2025, 1, 2) },
		"taxAmount":           func(d *entity.FiscalDocument) { d.TaxAmount = decimal.Zero },
		"customerTaxId":       func(d *entity.FiscalDocument) { d.CustomerTaxID = "123456789" },
		"previousChainHash":   func(d *entity.FiscalDocument) { d.PreviousChainHash = testHash2 },
		"documentIdentifier":  func(d *entity.FiscalDocument) { d.DocumentIdentifier = "X" },
		"isSealed":            func(d *entity.FiscalDocument) { d.IsSealed = false },
		"sealedAt":            func(d *entity.FiscalDocument) { d.SealedAt = nil },
		"isCreditNote":        func(d *entity.FiscalDocument) { d.IsCreditNote = true },
		"originalDocumentRef": func(d *entity.FiscalDocument) { d.OriginalDocumentID = "otro" },
		"creditReasonCode":    func(d *entity.FiscalDocument) { d.CreditReasonCode = entity.CreditReasonReturn },
		"lines":               func(d *entity.FiscalDocument) { d.Lines[0].Quantity = decimal.NewFromInt(2) },
	}
	g := fiscal.NewGuard()
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			existing := sealedDoc()
			incoming := existing.Clone()
			mutate(incoming)

			var pf *domain.ProtectedFieldError
			require.True(t, errors.As(g.BeforeUpdate(existing, incoming), &pf))
			assert.Equal(t, field, pf.Field)
		})
	}
}

func TestGuard_BorradorPermiteTodo(t *testing.T) {
	g := fiscal.NewGuard()
	existing := sealedDoc()
	existing.IsSealed = false
	incoming := existing.Clone()
	incoming.GrandTotal = decimal.NewFromInt(1)
	incoming.Series = "Z"

	assert.NoError(t, g.BeforeUpdate(existing, incoming))
	assert.NoError(t, g.BeforeDelete(existing))
}

func TestGuard_EliminarSelladoSiempreRechazado(t *testing.T) {
	err := fiscal.NewGuard().BeforeDelete(sealedDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrImmutableDeletion)
}

func TestGuard_ListaIncluyeCamposFiscales(t *testing.T) {
	fields := fiscal.ProtectedFields()
	for _, f := range []string{"grandTotal", "chainHash", "documentIdentifier", "originalDocumentRef", "creditReasonCode"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "notes")
}
