package billing_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
)

const (
	hash1 = "0b37986c4d16db818c9432369244aba7e675ae695fa52e64cfb1d1d43892f2a9"
	hash2 = "3a2dc7040b4b2512beffea64c13d0f6610f16a7105dfc8ba9b28bda3282512b3"
)

func TestSign_EncadenaDosDocumentos(t *testing.T) {
	e := newEnv(t, nil)

	first := e.sealSale(t, "2025-01-01", 2)  // 100 + 15
	second := e.sealSale(t, "2025-01-02", 4) // 200 + 30

	assert.Equal(t, int64(1), first.SequenceNumber)
	assert.Equal(t, fiscal.ZeroHash, first.PreviousChainHash)
	assert.Equal(t, hash1, first.ChainHash)
	assert.Equal(t, "CV20250101123456789FR00000001", first.DocumentIdentifier[:29])
	assert.Len(t, first.DocumentIdentifier, fiscal.IUDLength)

	assert.Equal(t, int64(2), second.SequenceNumber)
	assert.Equal(t, hash1, second.PreviousChainHash)
	assert.Equal(t, hash2, second.ChainHash)
	require.NotNil(t, second.SealedAt)
	assert.False(t, second.SealedAt.Before(*first.SealedAt))

	stored, err := e.docs.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSealed)
	assert.Equal(t, second.ChainHash, stored.ChainHash)
	assert.True(t, stored.SealedAt.Equal(*second.SealedAt), "sealedAt se persiste sin perder precisión")
}

func TestSign_YaSellado(t *testing.T) {
	e := newEnv(t, nil)
	sealed := e.sealSale(t, "2025-01-01", 1)

	_, err := e.signer.Sign(context.Background(), sealed.ID)
	var already *domain.AlreadySealedError
	assert.ErrorAs(t, err, &already)
}

func TestSign_NoEncontrado(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.signer.Sign(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSign_BorradorSinTotalEsInvalidState(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	draft := &entity.FiscalDocument{
		ID: "d-zero", Series: "A", DocumentType: entity.DocumentTypeInvoice,
		IssueDate: e.clock.Now(), GrandTotal: decimal.Zero,
	}
	require.NoError(t, e.docs.Create(ctx, draft))

	_, err := e.signer.Sign(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	maxSeq, err := e.docs.MaxSequence(ctx, "A")
	require.NoError(t, err)
	assert.Zero(t, maxSeq, "un fallo no consume número")
}

func TestSign_ConcurrenteMismaSerie(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		d, err := e.drafts.CreateDraft(ctx, sale("2025-01-02", int64(i+1), ""))
		require.NoError(t, err)
		ids[i] = d.ID
	}

	var wg sync.WaitGroup
	seqs := make([]int64, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sealed, err := e.signer.Sign(ctx, id)
			if assert.NoError(t, err) {
				seqs[i] = sealed.SequenceNumber
			}
		}(i, id)
	}
	wg.Wait()

	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, s := range seqs {
		assert.Equal(t, int64(i+1), s, "números contiguos y sin duplicados")
	}

	report, err := e.verifier.VerifyChain(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Valid, "la cadena resultante debe verificar: %+v", report.Breaks)
	assert.Equal(t, n, report.Documents)
}

func TestSign_SinkSeLlamaUnaVezYSuErrorNoSePropaga(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := billing.NewMockSubmissionSink(ctrl)
	sink.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *entity.FiscalDocument) error {
			assert.True(t, doc.IsSealed, "el sink recibe el documento ya sellado")
			return errors.New("DNRE no disponible")
		}).
		Times(1)

	e := newEnv(t, sink)
	sealed := e.sealSale(t, "2025-01-01", 1)
	assert.Equal(t, int64(1), sealed.SequenceNumber)
}

func TestSign_SeriesIndependientes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	a := e.sealSale(t, "2025-01-01", 1)
	req := sale("2025-01-01", 1, "")
	req.Series = "B"
	d, err := e.drafts.CreateDraft(ctx, req)
	require.NoError(t, err)
	b, err := e.signer.Sign(ctx, d.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.SequenceNumber)
	assert.Equal(t, int64(1), b.SequenceNumber)
	assert.Equal(t, fiscal.ZeroHash, b.PreviousChainHash, "cada serie tiene su propio origen")
}
