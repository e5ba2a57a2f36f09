package efatura

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

var (
	_ billing.SubmissionSink = (*FileSink)(nil)
	_ billing.SubmissionSink = (*LogSink)(nil)
)

// FileSink escribe el DFE de cada documento en dir (modo simulación: sin envío real).
type FileSink struct {
	dir     string
	company entity.Company
	log     zerolog.Logger
}

// NewFileSink crea el directorio si no existe.
func NewFileSink(dir string, company entity.Company, log zerolog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("efatura: crear directorio %s: %w", dir, err)
	}
	return &FileSink{dir: dir, company: company, log: log}, nil
}

// Submit genera el XML y lo guarda como efatura_<código>_<serie>_<número>_<fecha>.xml.
func (s *FileSink) Submit(ctx context.Context, doc *entity.FiscalDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := Build(s.company, doc, true)
	if err != nil {
		return err
	}
	name := saft.SubmissionFileName(doc.DocumentType.Code(), doc.Series, doc.SequenceNumber, doc.IssueDate)
	path := filepath.Join(s.dir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("efatura: escribir %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("efatura: renombrar %s: %w", name, err)
	}

	s.log.Info().
		Str("document_id", doc.ID).
		Str("iud", doc.DocumentIdentifier).
		Str("file", path).
		Msg("e-Fatura guardada (simulación)")
	return nil
}

// LogSink solo registra el documento; se usa cuando no hay directorio configurado.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink crea el sink.
func NewLogSink(log zerolog.Logger) *LogSink { return &LogSink{log: log} }

// Submit registra el documento sellado.
func (s *LogSink) Submit(_ context.Context, doc *entity.FiscalDocument) error {
	s.log.Info().
		Str("document_id", doc.ID).
		Str("series", doc.Series).
		Int64("sequence", doc.SequenceNumber).
		Str("iud", doc.DocumentIdentifier).
		Str("qr", doc.QRData()).
		Msg("documento listo para envío")
	return nil
}
