package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

// VerificationUseCase verificación de solo lectura (no bloquea a los selladores).
type VerificationUseCase struct {
	docs     repository.FiscalDocumentRepository
	verifier *fiscal.Verifier
	renderer ChainReportRenderer // opcional
	company  entity.Company
	clock    Clock
}

// NewVerificationUseCase construye el caso de uso. renderer puede ser nil.
func NewVerificationUseCase(
	docs repository.FiscalDocumentRepository,
	verifier *fiscal.Verifier,
	renderer ChainReportRenderer,
	company entity.Company,
	clock Clock,
) *VerificationUseCase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &VerificationUseCase{docs: docs, verifier: verifier, renderer: renderer, company: company, clock: clock}
}

// VerifyDocument recalcula hash e IUD del documento y, si no es el origen de la
// cadena, comprueba que su predecesor exista con ese hash.
func (uc *VerificationUseCase) VerifyDocument(ctx context.Context, id string) (fiscal.VerificationResult, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return fiscal.VerificationResult{}, fmt.Errorf("obtener documento: %w", err)
	}
	if doc == nil {
		return fiscal.VerificationResult{}, fmt.Errorf("documento %s: %w", id, domain.ErrNotFound)
	}
	res := uc.verifier.VerifyDocument(doc)
	if !res.Valid || doc.PreviousChainHash == fiscal.ZeroHash {
		return res, nil
	}

	chain, err := uc.docs.ListSealedBySeries(ctx, doc.Series)
	if err != nil {
		return fiscal.VerificationResult{}, fmt.Errorf("listar serie: %w", err)
	}
	for _, c := range chain {
		if c.SequenceNumber == doc.SequenceNumber-1 {
			if c.ChainHash != doc.PreviousChainHash {
				return fiscal.VerificationResult{DocumentID: doc.ID, Field: "previousChainHash",
					Expected: c.ChainHash, Actual: doc.PreviousChainHash}, nil
			}
			return res, nil
		}
	}
	return fiscal.VerificationResult{DocumentID: doc.ID, Field: "previousChainHash",
		Expected: "predecesor sellado", Actual: doc.PreviousChainHash}, nil
}

// VerifyChain verifica toda la serie.
func (uc *VerificationUseCase) VerifyChain(ctx context.Context, series string) (fiscal.ChainReport, error) {
	docs, err := uc.docs.ListSealedBySeries(ctx, series)
	if err != nil {
		return fiscal.ChainReport{}, fmt.Errorf("listar serie: %w", err)
	}
	return uc.verifier.VerifyChain(series, docs), nil
}

// ChainReportPDF verifica la serie y devuelve el informe en PDF.
func (uc *VerificationUseCase) ChainReportPDF(ctx context.Context, series string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("informe PDF no configurado: %w", domain.ErrInvalidInput)
	}
	report, err := uc.VerifyChain(ctx, series)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderChainReport(uc.company, report, uc.clock.Now().UTC())
}
