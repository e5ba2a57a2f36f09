package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/repository"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// ExportFormat formato de entrega del SAF-T.
type ExportFormat string

const (
	ExportXML ExportFormat = "xml"
	ExportZIP ExportFormat = "zip"
)

// AuditData todo lo que el codificador necesita, ya ordenado.
// Customers no incluye al Consumidor Final: el codificador agrega esa entrada.
type AuditData struct {
	Company   entity.Company
	Start     time.Time
	End       time.Time
	Customers []*entity.Customer
	Products  []*entity.Product
	TaxRates  []*entity.TaxRate
	Documents []*entity.FiscalDocument
	// Originals documentos corregidos por las notas de crédito del período, por ID.
	Originals map[string]*entity.FiscalDocument
}

// ExportArtifact resultado de una exportación.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Content     []byte
	Digest      string // SHA-256 del XML canonicalizado
	Documents   int
}

// Exporter arma el SAF-T de un período. Solo lecturas.
type Exporter struct {
	docs      repository.FiscalDocumentRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	taxes     repository.TaxRateRepository
	encoder   AuditFileEncoder
	packager  ArchivePackager
	company   entity.Company
	log       zerolog.Logger
}

// NewExporter construye el exportador.
func NewExporter(
	docs repository.FiscalDocumentRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	taxes repository.TaxRateRepository,
	encoder AuditFileEncoder,
	packager ArchivePackager,
	company entity.Company,
	log zerolog.Logger,
) *Exporter {
	return &Exporter{
		docs:      docs,
		customers: customers,
		products:  products,
		taxes:     taxes,
		encoder:   encoder,
		packager:  packager,
		company:   company,
		log:       log,
	}
}

// Export genera el archivo para [start, end] (fechas de emisión, inclusive).
// La salida es idéntica byte a byte para las mismas entradas.
func (e *Exporter) Export(ctx context.Context, start, end time.Time, format ExportFormat) (*ExportArtifact, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return nil, &domain.InvalidRangeError{Start: start, End: end}
	}
	if format == "" {
		format = ExportXML
	}
	if format != ExportXML && format != ExportZIP {
		return nil, &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("formato desconocido %q", format)}
	}

	data, err := e.collect(ctx, start, end)
	if err != nil {
		return nil, err
	}
	xmlBytes, err := e.encoder.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("codificar SAF-T: %w", err)
	}
	digest, err := e.encoder.Digest(xmlBytes)
	if err != nil {
		return nil, fmt.Errorf("huella SAF-T: %w", err)
	}

	base := saft.FileBaseName(e.company.TaxID, start, end)
	artifact := &ExportArtifact{
		Filename:    base + ".xml",
		ContentType: "application/xml",
		Content:     xmlBytes,
		Digest:      digest,
		Documents:   len(data.Documents),
	}
	if format == ExportZIP {
		zipped, err := e.packager.Package(artifact.Filename, xmlBytes, end)
		if err != nil {
			return nil, fmt.Errorf("empaquetar SAF-T: %w", err)
		}
		artifact.Filename = base + ".zip"
		artifact.ContentType = "application/zip"
		artifact.Content = zipped
	}

	e.log.Info().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Int("documents", artifact.Documents).
		Str("digest", digest).
		Str("file", artifact.Filename).
		Msg("SAF-T exportado")
	return artifact, nil
}

// collect lee documentos, maestros y originales. Todo se ordena por clave
// para que la salida no dependa del orden de la base.
func (e *Exporter) collect(ctx context.Context, start, end time.Time) (*AuditData, error) {
	docs, err := e.docs.ListSealedByIssueDate(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listar documentos: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Series != docs[j].Series {
			return docs[i].Series < docs[j].Series
		}
		return docs[i].SequenceNumber < docs[j].SequenceNumber
	})

	data := &AuditData{
		Company:   e.company,
		Start:     start,
		End:       end,
		Documents: docs,
		Originals: map[string]*entity.FiscalDocument{},
	}

	if data.Customers, err = e.collectCustomers(ctx, docs); err != nil {
		return nil, err
	}
	if data.Products, err = e.collectProducts(ctx, docs); err != nil {
		return nil, err
	}
	if data.TaxRates, err = e.collectTaxRates(ctx); err != nil {
		return nil, err
	}

	for _, d := range docs {
		if !d.IsCreditNote || d.OriginalDocumentID == "" {
			continue
		}
		if _, ok := data.Originals[d.OriginalDocumentID]; ok {
			continue
		}
		orig, err := e.docs.GetByID(ctx, d.OriginalDocumentID)
		if err != nil {
			return nil, fmt.Errorf("documento original %s: %w", d.OriginalDocumentID, err)
		}
		if orig != nil {
			data.Originals[orig.ID] = orig
		}
	}
	return data, nil
}

// collectCustomers clientes identificados tocados en el período. Los NIF sin
// ficha en el directorio se completan con el snapshot del documento.
func (e *Exporter) collectCustomers(ctx context.Context, docs []*entity.FiscalDocument) ([]*entity.Customer, error) {
	snapshot := map[string]string{}
	var taxIDs []string
	for _, d := range docs {
		if saft.IsFinalConsumer(d.CustomerTaxID) {
			continue
		}
		if _, seen := snapshot[d.CustomerTaxID]; !seen {
			snapshot[d.CustomerTaxID] = d.CustomerName
			taxIDs = append(taxIDs, d.CustomerTaxID)
		}
	}
	if len(taxIDs) == 0 {
		return nil, nil
	}
	sort.Strings(taxIDs)

	known, err := e.customers.ListByTaxIDs(ctx, taxIDs)
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	byTaxID := make(map[string]*entity.Customer, len(known))
	for _, c := range known {
		byTaxID[c.TaxID] = c
	}

	out := make([]*entity.Customer, 0, len(taxIDs))
	for _, id := range taxIDs {
		if c, ok := byTaxID[id]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, &entity.Customer{ID: id, TaxID: id, Name: snapshot[id]})
	}
	return out, nil
}

// collectProducts productos referenciados por las líneas; los que no están en
// el catálogo se derivan de la primera línea que los usa.
func (e *Exporter) collectProducts(ctx context.Context, docs []*entity.FiscalDocument) ([]*entity.Product, error) {
	fromLine := map[string]entity.DocumentLine{}
	var codes []string
	for _, d := range docs {
		for _, l := range d.Lines {
			if l.ProductCode == "" {
				continue
			}
			if _, seen := fromLine[l.ProductCode]; !seen {
				fromLine[l.ProductCode] = l
				codes = append(codes, l.ProductCode)
			}
		}
	}
	if len(codes) == 0 {
		return nil, nil
	}
	sort.Strings(codes)

	known, err := e.products.ListByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	byCode := make(map[string]*entity.Product, len(known))
	for _, p := range known {
		byCode[p.Code] = p
	}

	out := make([]*entity.Product, 0, len(codes))
	for _, code := range codes {
		if p, ok := byCode[code]; ok {
			out = append(out, p)
			continue
		}
		l := fromLine[code]
		kind := saft.ProductTypeGood
		if code == saft.CreditAdjustmentProductCode {
			kind = saft.ProductService
		}
		out = append(out, &entity.Product{
			ID:          code,
			Code:        code,
			Description: l.Description,
			Type:        kind,
			Price:       l.UnitPrice,
			TaxCode:     l.TaxCode,
		})
	}
	return out, nil
}

// collectTaxRates tabla configurada o, si está vacía, la tabla por defecto.
func (e *Exporter) collectTaxRates(ctx context.Context) ([]*entity.TaxRate, error) {
	rates, err := e.taxes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar impuestos: %w", err)
	}
	if len(rates) == 0 {
		for _, d := range saft.DefaultTaxTable {
			rates = append(rates, defaultRate(d))
		}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		if rates[i].Type != rates[j].Type {
			return rates[i].Type < rates[j].Type
		}
		return rates[i].Code < rates[j].Code
	})
	return rates, nil
}

func defaultRate(e saft.TaxEntry) *entity.TaxRate {
	return &entity.TaxRate{
		Type:        e.Type,
		Region:      e.Region,
		Code:        e.Code,
		Description: e.Description,
		Percentage:  decimal.RequireFromString(e.Percentage),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
