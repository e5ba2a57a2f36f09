package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/sqlite"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var baseTime = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func draft(id, series string, total string) *entity.FiscalDocument {
	grand := decimal.RequireFromString(total)
	tax := grand.Mul(decimal.NewFromInt(15)).Div(decimal.NewFromInt(115)).Round(2)
	net := grand.Sub(tax)
	return &entity.FiscalDocument{
		ID:           id,
		Series:       series,
		DocumentType: entity.DocumentTypeInvoice,
		IssueDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IssueTime:    "10:00:00",
		NetAmount:    net,
		TaxAmount:    tax,
		GrandTotal:   grand,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
		Lines: []entity.DocumentLine{{
			ID: id + "-l1", DocumentID: id, LineNumber: 1, ProductCode: "CAFE", Description: "Café",
			Quantity: decimal.NewFromInt(1), UnitPrice: net, TaxCode: "NOR",
			TaxPercentage: decimal.NewFromInt(15), NetAmount: net, TaxAmount: tax,
		}},
	}
}

// seal marca el documento como sellado con los campos de integridad calculados.
func seal(d *entity.FiscalDocument, seq int64, prevHash string, at time.Time) *entity.FiscalDocument {
	s := d.Clone()
	s.SequenceNumber = seq
	s.PreviousChainHash = prevHash
	s.ChainHash = fiscal.ComputeHash(s, prevHash)
	s.DocumentIdentifier = fiscal.NewIUDGenerator("CV", "123456789").Generate(s)
	s.IsSealed = true
	s.SealedAt = &at
	s.UpdatedAt = at
	return s
}

func createAndSeal(t *testing.T, repo *sqlite.FiscalDocumentRepo, d *entity.FiscalDocument, seq int64, prev string, at time.Time) *entity.FiscalDocument {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, d))
	s := seal(d, seq, prev, at)
	require.NoError(t, repo.Update(ctx, s))
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD y guardia
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalDocumentRepo_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())

	d := draft("d1", "A", "115.00")
	d.CustomerTaxID = "123456789"
	d.CustomerName = "Cliente"
	d.Notes = "mesa 4"
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Series)
	assert.True(t, got.GrandTotal.Equal(decimal.RequireFromString("115")), "el total debe conservarse exacto")
	assert.Equal(t, "2025-01-01", got.IssueDate.Format("2006-01-02"))
	assert.False(t, got.IsSealed)
	assert.Nil(t, got.SealedAt)
	assert.Equal(t, "mesa 4", got.Notes)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "CAFE", got.Lines[0].ProductCode)

	missing, err := repo.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing, "un documento inexistente devuelve (nil, nil)")

	assert.ErrorIs(t, repo.Create(ctx, d), domain.ErrDuplicate)
}

func TestFiscalDocumentRepo_SealedSoloPermiteNotas(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())
	sealed := createAndSeal(t, repo, draft("d1", "A", "115.00"), 1, fiscal.ZeroHash, baseTime)

	stored, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, sealed.ChainHash, stored.ChainHash)
	require.NotNil(t, stored.SealedAt)
	assert.True(t, stored.SealedAt.Equal(baseTime))

	// notas: permitido
	annotated := stored.Clone()
	annotated.Notes = "revisado"
	require.NoError(t, repo.Update(ctx, annotated))

	// total: rechazado por la guardia dentro del repositorio
	tampered := stored.Clone()
	tampered.GrandTotal = decimal.RequireFromString("1.00")
	err = repo.Update(ctx, tampered)
	var pf *domain.ProtectedFieldError
	require.True(t, errors.As(err, &pf), "debe devolver ProtectedFieldError, obtuvo %v", err)
	assert.Equal(t, "grandTotal", pf.Field)

	after, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, after.GrandTotal.Equal(decimal.RequireFromString("115")), "el total no debe cambiar")
	assert.Equal(t, "revisado", after.Notes)

	// eliminar: rechazado
	err = repo.Delete(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrImmutableDeletion)
	still, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestFiscalDocumentRepo_BorradorEditableYEliminable(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())
	d := draft("d1", "A", "115.00")
	require.NoError(t, repo.Create(ctx, d))

	edited := draft("d1", "A", "230.00")
	edited.Lines[0].ID = "d1-l2"
	require.NoError(t, repo.Update(ctx, edited))
	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, got.GrandTotal.Equal(decimal.RequireFromString("230")))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "d1-l2", got.Lines[0].ID, "las líneas del borrador se reemplazan")

	require.NoError(t, repo.Delete(ctx, "d1"))
	gone, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, repo.Delete(ctx, "d1"), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas de la cadena
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalDocumentRepo_FindLatestSealed(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())

	none, err := repo.FindLatestSealed(ctx, "A", baseTime, "x")
	require.NoError(t, err)
	assert.Nil(t, none)

	s1 := createAndSeal(t, repo, draft("d1", "A", "115.00"), 1, fiscal.ZeroHash, baseTime)
	// mismo instante: desempata la secuencia
	s2 := createAndSeal(t, repo, draft("d2", "A", "230.00"), 2, s1.ChainHash, baseTime)
	createAndSeal(t, repo, draft("b1", "B", "10.00"), 1, fiscal.ZeroHash, baseTime.Add(time.Hour))

	got, err := repo.FindLatestSealed(ctx, "A", baseTime, "cand")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s2.ID, got.ID)

	got, err = repo.FindLatestSealed(ctx, "A", baseTime, "d2")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID, "el candidato se excluye")

	got, err = repo.FindLatestSealed(ctx, "A", baseTime.Add(-time.Second), "cand")
	require.NoError(t, err)
	assert.Nil(t, got, "nada sellado antes del instante")

	max, err := repo.MaxSequence(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(2), max)
	max, err = repo.MaxSequence(ctx, "Z")
	require.NoError(t, err)
	assert.Zero(t, max)
}

func TestFiscalDocumentRepo_DuplicadoEsSequenceConflict(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())
	createAndSeal(t, repo, draft("d1", "A", "115.00"), 1, fiscal.ZeroHash, baseTime)

	d2 := draft("d2", "A", "230.00")
	require.NoError(t, repo.Create(ctx, d2))
	err := repo.Update(ctx, seal(d2, 1, fiscal.ZeroHash, baseTime))
	assert.ErrorIs(t, err, domain.ErrSequenceConflict)

	stored, err := repo.GetByID(ctx, "d2")
	require.NoError(t, err)
	assert.False(t, stored.IsSealed, "el conflicto no deja el documento sellado")
}

func TestFiscalDocumentRepo_Listados(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())

	a1 := createAndSeal(t, repo, draft("a1", "A", "115.00"), 1, fiscal.ZeroHash, baseTime)
	late := draft("a2", "A", "50.00")
	late.IssueDate = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	createAndSeal(t, repo, late, 2, a1.ChainHash, baseTime.Add(time.Minute))
	createAndSeal(t, repo, draft("b1", "B", "20.00"), 1, fiscal.ZeroHash, baseTime)
	require.NoError(t, repo.Create(ctx, draft("borrador", "A", "1.00")))

	jan, err := repo.ListSealedByIssueDate(ctx,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, jan, 2)
	assert.Equal(t, "a1", jan[0].ID)
	assert.Equal(t, "b1", jan[1].ID)
	assert.Len(t, jan[0].Lines, 1, "los listados incluyen líneas")

	chain, err := repo.ListSealedBySeries(ctx, "A")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, int64(1), chain[0].SequenceNumber)
	assert.Equal(t, int64(2), chain[1].SequenceNumber)
}

func TestFiscalDocumentRepo_SumCredited(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewFiscalDocumentRepository(openMemory(t).DB())
	orig := createAndSeal(t, repo, draft("o1", "A", "115.00"), 1, fiscal.ZeroHash, baseTime)

	sum, err := repo.SumCredited(ctx, orig.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	prev := fiscal.ZeroHash
	for i, amount := range []string{"10.10", "20.20"} {
		nc := draft("nc"+string(rune('1'+i)), "NC", amount)
		nc.DocumentType = entity.DocumentTypeCreditNote
		nc.IsCreditNote = true
		nc.OriginalDocumentID = orig.ID
		nc.CreditReasonCode = entity.CreditReasonReturn
		s := createAndSeal(t, repo, nc, int64(i+1), prev, baseTime.Add(time.Duration(i+1)*time.Minute))
		prev = s.ChainHash
	}

	sum, err = repo.SumCredited(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.30", sum.StringFixed(2))
}
