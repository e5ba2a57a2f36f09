package fiscal

import (
	"sort"
	"strconv"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

// VerificationResult resultado de recalcular un documento sellado.
type VerificationResult struct {
	DocumentID string
	Valid      bool
	Field      string // primer campo en desacuerdo
	Expected   string
	Actual     string
}

// Err convierte un resultado fallido en *domain.ChainIntegrityError.
func (r VerificationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &domain.ChainIntegrityError{DocumentID: r.DocumentID, Field: r.Field, Expected: r.Expected, Actual: r.Actual}
}

// ChainReport resultado de verificar la cadena completa de una serie.
type ChainReport struct {
	Series    string
	Documents int
	Valid     bool
	LastHash  string
	LastIUD   string
	Breaks    []VerificationResult
}

// Verifier recalcula hash e IUD y los compara byte a byte con lo almacenado.
type Verifier struct {
	iud *IUDGenerator
}

// NewVerifier construye el verificador con el generador de IUD del emisor.
func NewVerifier(iud *IUDGenerator) *Verifier {
	return &Verifier{iud: iud}
}

// VerifyDocument verifica un documento aislado contra su propio previousChainHash.
func (v *Verifier) VerifyDocument(doc *entity.FiscalDocument) VerificationResult {
	fail := func(field, expected, actual string) VerificationResult {
		return VerificationResult{DocumentID: doc.ID, Field: field, Expected: expected, Actual: actual}
	}
	if !doc.IsSealed || doc.SealedAt == nil {
		return fail("isSealed", "true", strconv.FormatBool(doc.IsSealed))
	}
	if !IsValidHash(doc.PreviousChainHash) {
		return fail("previousChainHash", "hash de 64 caracteres hex", doc.PreviousChainHash)
	}
	if expected := ComputeHash(doc, doc.PreviousChainHash); expected != doc.ChainHash {
		return fail("chainHash", expected, doc.ChainHash)
	}
	if expected := v.iud.Generate(doc); expected != doc.DocumentIdentifier {
		return fail("documentIdentifier", expected, doc.DocumentIdentifier)
	}
	return VerificationResult{DocumentID: doc.ID, Valid: true}
}

// VerifyChain verifica la serie completa: secuencia contigua desde 1, origen en
// ZeroHash y cada previousChainHash igual al chainHash del anterior.
func (v *Verifier) VerifyChain(series string, docs []*entity.FiscalDocument) ChainReport {
	ordered := make([]*entity.FiscalDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SequenceNumber < ordered[j].SequenceNumber })

	report := ChainReport{Series: series, Documents: len(ordered), Valid: true}
	expectedPrev := ZeroHash
	var expectedSeq int64 = 1
	for _, doc := range ordered {
		var res VerificationResult
		switch {
		case doc.SequenceNumber != expectedSeq:
			res = VerificationResult{DocumentID: doc.ID, Field: "sequenceNumber",
				Expected: strconv.FormatInt(expectedSeq, 10), Actual: strconv.FormatInt(doc.SequenceNumber, 10)}
		case doc.PreviousChainHash != expectedPrev:
			res = VerificationResult{DocumentID: doc.ID, Field: "previousChainHash", Expected: expectedPrev, Actual: doc.PreviousChainHash}
		default:
			res = v.VerifyDocument(doc)
		}
		if !res.Valid {
			report.Valid = false
			report.Breaks = append(report.Breaks, res)
		}
		expectedPrev = doc.ChainHash
		expectedSeq = doc.SequenceNumber + 1
		report.LastHash = doc.ChainHash
		report.LastIUD = doc.DocumentIdentifier
	}
	return report
}
