package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

// Resolver busca el predecesor de un documento en el orden de la cadena.
type Resolver struct {
	docs repository.PreviousLookup
}

// NewResolver construye el resolver. docs debe estar atado a la misma
// transacción que va a persistir el sellado.
func NewResolver(docs repository.PreviousLookup) *Resolver {
	return &Resolver{docs: docs}
}

// FindPrevious devuelve el último documento sellado de la serie con sealedAt <= at
// (desempate por número de secuencia descendente) y su hash. Sin predecesor
// devuelve (nil, ZeroHash).
func (r *Resolver) FindPrevious(ctx context.Context, doc *entity.FiscalDocument, at time.Time) (*entity.FiscalDocument, string, error) {
	prev, err := r.docs.FindLatestSealed(ctx, doc.Series, at, doc.ID)
	if err != nil {
		return nil, "", fmt.Errorf("resolver predecesor: %w", err)
	}
	if prev == nil {
		return nil, ZeroHash, nil
	}
	return prev, prev.ChainHash, nil
}

// endOfTime cota de FindLatest: posterior a cualquier sealedAt real.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// FindLatest último sellado de la serie sin acotar por el reloj local. Es el
// predecesor de un sellado nuevo aunque el reloj haya retrocedido.
func (r *Resolver) FindLatest(ctx context.Context, doc *entity.FiscalDocument) (*entity.FiscalDocument, string, error) {
	return r.FindPrevious(ctx, doc, endOfTime)
}

// SealInstant instante de sellado: now, o el sealedAt del predecesor si el
// reloj quedó por detrás. sealedAt nunca decrece dentro de una serie.
func SealInstant(now time.Time, prev *entity.FiscalDocument) time.Time {
	if prev != nil && prev.SealedAt != nil && now.Before(*prev.SealedAt) {
		return *prev.SealedAt
	}
	return now
}

// SelectPrevious aplica la misma regla sobre un conjunto en memoria.
func SelectPrevious(candidates []*entity.FiscalDocument, doc *entity.FiscalDocument, at time.Time) *entity.FiscalDocument {
	var best *entity.FiscalDocument
	for _, c := range candidates {
		if c == nil || !c.IsSealed || c.SealedAt == nil || c.ID == doc.ID || c.Series != doc.Series {
			continue
		}
		if c.SealedAt.After(at) {
			continue
		}
		if best == nil || Later(c, best) {
			best = c
		}
	}
	return best
}

// Later indica si a va después de b en el orden de sellado (sealedAt y luego secuencia).
func Later(a, b *entity.FiscalDocument) bool {
	if !a.SealedAt.Equal(*b.SealedAt) {
		return a.SealedAt.After(*b.SealedAt)
	}
	return a.SequenceNumber > b.SequenceNumber
}
