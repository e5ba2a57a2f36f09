package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

// DefaultSealAttempts intentos ante un SequenceConflict antes de rendirse.
const DefaultSealAttempts = 3

// Signer orquesta el sellado:
//
//	validar → resolver previo → secuencia → hash → IUD → sellar → persistir
//
// Todo lo que va de "resolver previo" a "persistir" corre dentro de
// FiscalTxRunner.RunSeries, de modo que dos sellados de la misma serie nunca
// leen el mismo predecesor. Si aun así la base detecta un duplicado
// (SequenceConflict) la unidad completa se reintenta.
type Signer struct {
	tx          FiscalTxRunner
	docs        repository.FiscalDocumentRepository
	iud         *fiscal.IUDGenerator
	sink        SubmissionSink // opcional
	clock       Clock
	log         zerolog.Logger
	maxAttempts int
}

// NewSigner construye el orquestador. sink puede ser nil.
func NewSigner(
	tx FiscalTxRunner,
	docs repository.FiscalDocumentRepository,
	iud *fiscal.IUDGenerator,
	sink SubmissionSink,
	clock Clock,
	log zerolog.Logger,
) *Signer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Signer{
		tx:          tx,
		docs:        docs,
		iud:         iud,
		sink:        sink,
		clock:       clock,
		log:         log,
		maxAttempts: DefaultSealAttempts,
	}
}

// Sign sella el borrador documentID y devuelve el documento sellado.
func (s *Signer) Sign(ctx context.Context, documentID string) (*entity.FiscalDocument, error) {
	draft, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("obtener documento: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("documento %s: %w", documentID, domain.ErrNotFound)
	}
	if draft.IsSealed {
		return nil, &domain.AlreadySealedError{DocumentID: documentID}
	}
	if err := fiscal.ValidateDraft(draft); err != nil {
		return nil, err
	}

	var sealed *entity.FiscalDocument
	err = s.runSeries(ctx, draft.Series, func(docs repository.FiscalDocumentRepository) error {
		// releer bajo el bloqueo: otro sellado pudo ganar la carrera
		current, err := docs.GetByID(ctx, documentID)
		if err != nil {
			return fmt.Errorf("releer documento: %w", err)
		}
		if current == nil {
			return fmt.Errorf("documento %s: %w", documentID, domain.ErrNotFound)
		}
		if current.IsSealed {
			return &domain.AlreadySealedError{DocumentID: documentID}
		}
		sealed, err = s.sealInTx(ctx, docs, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.submit(ctx, sealed)
	return sealed, nil
}

// runSeries ejecuta fn bajo el bloqueo de la serie reintentando ante SequenceConflict.
func (s *Signer) runSeries(ctx context.Context, series string, fn func(docs repository.FiscalDocumentRepository) error) error {
	for attempt := 1; ; attempt++ {
		err := s.tx.RunSeries(ctx, series, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSequenceConflict) || attempt >= s.maxAttempts || ctx.Err() != nil {
			return err
		}
		s.log.Warn().Err(err).
			Str("series", series).
			Int("attempt", attempt).
			Msg("conflicto de secuencia, reintentando sellado")
	}
}

// sealInTx calcula los campos de integridad y persiste. docs debe estar atado a
// la transacción de RunSeries.
func (s *Signer) sealInTx(ctx context.Context, docs repository.FiscalDocumentRepository, draft *entity.FiscalDocument) (*entity.FiscalDocument, error) {
	if err := fiscal.ValidateDraft(draft); err != nil {
		return nil, err
	}
	prev, prevHash, err := fiscal.NewResolver(docs).FindLatest(ctx, draft)
	if err != nil {
		return nil, err
	}
	clockNow := s.clock.Now().UTC().Truncate(time.Microsecond)
	now := fiscal.SealInstant(clockNow, prev)
	if !now.Equal(clockNow) {
		s.log.Warn().
			Str("series", draft.Series).
			Time("clock", clockNow).
			Time("predecessor_sealed_at", now).
			Msg("reloj por detrás del último sellado, se usa el instante del predecesor")
	}
	maxSeq, err := docs.MaxSequence(ctx, draft.Series)
	if err != nil {
		return nil, fmt.Errorf("secuencia máxima: %w", err)
	}
	var prevSeq int64
	if prev != nil {
		prevSeq = prev.SequenceNumber
	}
	if prevSeq != maxSeq {
		return nil, &domain.SequenceConflictError{
			Series: draft.Series,
			Reason: fmt.Sprintf("el predecesor resuelto (%d) no es el último número emitido (%d)", prevSeq, maxSeq),
		}
	}

	sealed := draft.Clone()
	sealed.SequenceNumber = maxSeq + 1
	sealed.PreviousChainHash = prevHash
	sealed.ChainHash = fiscal.ComputeHash(sealed, prevHash)
	sealed.DocumentIdentifier = s.iud.Generate(sealed)
	sealed.IsSealed = true
	sealed.SealedAt = &now
	sealed.UpdatedAt = now

	if err := docs.Update(ctx, sealed); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("document_id", sealed.ID).
		Str("series", sealed.Series).
		Int64("sequence", sealed.SequenceNumber).
		Str("iud", sealed.DocumentIdentifier).
		Msg("documento sellado")
	return sealed, nil
}

// submit entrega el documento al sink. El sellado ya está confirmado: un fallo
// aquí se registra y no se propaga.
func (s *Signer) submit(ctx context.Context, doc *entity.FiscalDocument) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Submit(ctx, doc); err != nil {
		s.log.Error().Err(err).
			Str("document_id", doc.ID).
			Str("iud", doc.DocumentIdentifier).
			Msg("envío del documento sellado")
	}
}
