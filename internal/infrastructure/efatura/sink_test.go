package efatura_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/efatura"
)

func sealed() *entity.FiscalDocument {
	at := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	d := &entity.FiscalDocument{
		ID: "d1", Series: "A", SequenceNumber: 7, DocumentType: entity.DocumentTypeInvoiceReceipt,
		IssueDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), IssueTime: "09:30:00",
		NetAmount: decimal.RequireFromString("100"), TaxAmount: decimal.RequireFromString("15"),
		GrandTotal: decimal.RequireFromString("115"), IsSealed: true, SealedAt: &at,
		Lines: []entity.DocumentLine{{
			LineNumber: 1, ProductCode: "CAFE", Description: "Café", Quantity: decimal.NewFromInt(2),
			UnitPrice: decimal.RequireFromString("50"), TaxPercentage: decimal.NewFromInt(15),
			NetAmount: decimal.RequireFromString("100"), TaxAmount: decimal.RequireFromString("15"),
		}},
	}
	d.PreviousChainHash = fiscal.ZeroHash
	d.ChainHash = fiscal.ComputeHash(d, fiscal.ZeroHash)
	d.DocumentIdentifier = fiscal.NewIUDGenerator("CV", "123456789").Generate(d)
	return d
}

var company = entity.Company{TaxID: "123456789", Name: "Morabeza", StreetName: "Rua A", City: "Praia", PostalCode: "7600",
	SoftwareCertificate: "0", ProductID: "FiscalEngine", SoftwareVersion: "1.0.0"}

func TestBuild(t *testing.T) {
	d := sealed()
	out, err := efatura.Build(company, d, true)
	require.NoError(t, err)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(out))
	dfe := x.SelectElement("Dfe")
	require.NotNil(t, dfe)
	assert.Equal(t, "2", dfe.SelectAttrValue("DocumentTypeCode", ""), "FR = 2")
	assert.Equal(t, d.DocumentIdentifier, dfe.SelectAttrValue("Id", ""))
	assert.Equal(t, "true", dfe.SelectElement("IsSpecimen").Text())
	assert.Equal(t, "IUD:"+d.DocumentIdentifier, dfe.SelectElement("QRCode").Text())
	assert.Equal(t, "999999999", dfe.FindElement("./Invoice/ReceiverParty/TaxId").Text(), "consumidor final")
	assert.Equal(t, "115.00", dfe.FindElement("./Invoice/Totals/GrandTotal").Text())

	_, err = efatura.Build(company, &entity.FiscalDocument{ID: "x"}, true)
	assert.Error(t, err, "un borrador no se envía")
}

func TestFileSink_Submit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "efatura")
	sink, err := efatura.NewFileSink(dir, company, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, sink.Submit(context.Background(), sealed()))

	path := filepath.Join(dir, "efatura_2_A_7_2025-01-02.xml")
	content, err := os.ReadFile(path)
	require.NoError(t, err, "debe existir el archivo de la e-Fatura")
	assert.Contains(t, string(content), "<Dfe")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no deben quedar temporales")
}

func TestLogSink_Submit(t *testing.T) {
	assert.NoError(t, efatura.NewLogSink(zerolog.Nop()).Submit(context.Background(), sealed()))
}
