package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno de prueba: SQLite en memoria + reloj que avanza 1ms por lectura.
// ──────────────────────────────────────────────────────────────────────────────

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

var testCompany = entity.Company{
	TaxID: "123456789", Name: "Morabeza Lda", StreetName: "Rua A", City: "Praia", PostalCode: "7600",
	CountryCode: "CV", Currency: "CVE", SoftwareCertificate: "0", ProductID: "FiscalEngine", SoftwareVersion: "1.0.0",
}

type env struct {
	store    *sqlite.Store
	docs     *sqlite.FiscalDocumentRepo
	clock    *stepClock
	iud      *fiscal.IUDGenerator
	drafts   *billing.DocumentUseCase
	signer   *billing.Signer
	credits  *billing.CreditNoteIssuer
	verifier *billing.VerificationUseCase
}

func newEnv(t *testing.T, sink billing.SubmissionSink) *env {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	docs := sqlite.NewFiscalDocumentRepository(store.DB())
	clock := newStepClock()
	iud := fiscal.NewIUDGenerator("CV", testCompany.TaxID)
	signer := billing.NewSigner(sqlite.NewTxRunner(store.DB()), docs, iud, sink, clock, zerolog.Nop())
	return &env{
		store:    store,
		docs:     docs,
		clock:    clock,
		iud:      iud,
		drafts:   billing.NewDocumentUseCase(docs, "A", clock),
		signer:   signer,
		credits:  billing.NewCreditNoteIssuer(signer, docs, "NC", zerolog.Nop()),
		verifier: billing.NewVerificationUseCase(docs, fiscal.NewVerifier(iud), nil, testCompany, clock),
	}
}

// sale venta de qty unidades a 50 con IVA 15%.
func sale(issueDate string, qty int64, customerTaxID string) dto.CreateDraftRequest {
	return dto.CreateDraftRequest{
		DocumentType:  string(entity.DocumentTypeInvoiceReceipt),
		IssueDate:     issueDate,
		CustomerTaxID: customerTaxID,
		CustomerName:  "Cliente " + customerTaxID,
		Lines: []dto.DraftLineRequest{{
			ProductCode:   "CAFE",
			Description:   "Café torrado",
			Quantity:      decimal.NewFromInt(qty),
			UnitPrice:     decimal.NewFromInt(50),
			TaxPercentage: decimal.NewFromInt(15),
		}},
	}
}

func (e *env) sealSale(t *testing.T, issueDate string, qty int64) *entity.FiscalDocument {
	t.Helper()
	ctx := context.Background()
	d, err := e.drafts.CreateDraft(ctx, sale(issueDate, qty, ""))
	require.NoError(t, err)
	sealed, err := e.signer.Sign(ctx, d.ID)
	require.NoError(t, err)
	return sealed
}
