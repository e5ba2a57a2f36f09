package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/efatura"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/pdf"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/saft"
	"github.com/jhoicas/fiscal-engine/pkg/config"
	"github.com/jhoicas/fiscal-engine/pkg/logger"
)

// Services casos de uso del motor fiscal listos para HTTP o CLI.
type Services struct {
	Company      entity.Company
	Documents    *billing.DocumentUseCase
	Signer       *billing.Signer
	Credits      *billing.CreditNoteIssuer
	Verification *billing.VerificationUseCase
	Exporter     *billing.Exporter
}

// CompanyFromConfig datos del emisor para SAF-T, e-Fatura e informes.
func CompanyFromConfig(fc config.FiscalConfig) entity.Company {
	return entity.Company{
		TaxID:               fc.EmitterNIF,
		Name:                fc.CompanyName,
		StreetName:          fc.StreetName,
		Number:              fc.Number,
		City:                fc.City,
		PostalCode:          fc.PostalCode,
		CountryCode:         fc.CountryCode,
		Currency:            fc.Currency,
		SoftwareCertificate: fc.SoftwareCertificate,
		ProductID:           fc.ProductID,
		SoftwareVersion:     fc.SoftwareVersion,
	}
}

// NewServices conecta los casos de uso al backend. clock nil = reloj del sistema.
func NewServices(fc config.FiscalConfig, b *Backend, clock billing.Clock, log zerolog.Logger) (*Services, error) {
	company := CompanyFromConfig(fc)

	sinkLog := logger.Component(log, "efatura")
	var sink billing.SubmissionSink = efatura.NewLogSink(sinkLog)
	if fc.SubmissionDir != "" {
		fs, err := efatura.NewFileSink(fc.SubmissionDir, company, sinkLog)
		if err != nil {
			return nil, fmt.Errorf("e-Fatura: %w", err)
		}
		sink = fs
	}
	encoder, err := saft.NewEncoder(fc.ExportEncoding)
	if err != nil {
		return nil, err
	}

	iud := fiscal.NewIUDGenerator(fc.CountryCode, fc.EmitterNIF)
	signer := billing.NewSigner(b.Tx, b.Docs, iud, sink, clock, logger.Component(log, "signer"))
	return &Services{
		Company:   company,
		Documents: billing.NewDocumentUseCase(b.Docs, fc.InvoiceSeries, clock),
		Signer:    signer,
		Credits:   billing.NewCreditNoteIssuer(signer, b.Docs, fc.CreditNoteSeries, logger.Component(log, "credit")),
		Verification: billing.NewVerificationUseCase(b.Docs, fiscal.NewVerifier(iud),
			pdf.NewChainReportGenerator(), company, clock),
		Exporter: billing.NewExporter(b.Docs, b.Customers, b.Products, b.TaxRates,
			encoder, saft.NewZipPackager(), company, logger.Component(log, "exporter")),
	}, nil
}
