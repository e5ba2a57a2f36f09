package billing

import (
	"context"
	"time"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
)

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=billing

// FiscalTxRunner ejecuta fn dentro de una transacción con exclusión mutua por serie:
// dos llamadas con la misma serie nunca se solapan; series distintas corren en paralelo.
// Los repositorios recibidos están atados a la transacción.
type FiscalTxRunner interface {
	RunSeries(ctx context.Context, series string, fn func(docs repository.FiscalDocumentRepository) error) error
}

// SubmissionSink recibe cada documento una vez sellado y confirmado
// (punto de extensión para el envío a la autoridad tributaria).
type SubmissionSink interface {
	Submit(ctx context.Context, doc *entity.FiscalDocument) error
}

// Clock fuente de tiempo del sellado.
type Clock interface {
	Now() time.Time
}

// AuditFileEncoder serializa el SAF-T.
type AuditFileEncoder interface {
	Encode(data *AuditData) ([]byte, error)
	// Digest huella SHA-256 del XML canonicalizado.
	Digest(content []byte) (string, error)
}

// ArchivePackager empaqueta un archivo en un contenedor comprimido.
type ArchivePackager interface {
	Package(entryName string, content []byte, modified time.Time) ([]byte, error)
}

// ChainReportRenderer genera el informe de verificación de una serie.
type ChainReportRenderer interface {
	RenderChainReport(company entity.Company, report fiscal.ChainReport, generatedAt time.Time) ([]byte, error)
}

// SystemClock reloj real (UTC).
type SystemClock struct{}

// Now hora actual en UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
