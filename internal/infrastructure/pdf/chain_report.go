// Package pdf genera el informe de verificación de una serie fiscal.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + NIF        │  Serie + fecha de emisión    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: documentos / estado / último hash                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Documento | Campo | Esperado | Almacenado           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del último IUD + software certificado           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

var _ billing.ChainReportRenderer = (*ChainReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOK      = &props.Color{Red: 20, Green: 120, Blue: 60}
	colorBroken  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ChainReportGenerator implementa billing.ChainReportRenderer usando Maroto v2.
type ChainReportGenerator struct{}

// NewChainReportGenerator construye el generador.
func NewChainReportGenerator() *ChainReportGenerator { return &ChainReportGenerator{} }

// RenderChainReport genera el PDF y devuelve sus bytes.
func (g *ChainReportGenerator) RenderChainReport(company entity.Company, report fiscal.ChainReport, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Verificação da cadeia fiscal", true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(company, report, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRows(report)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(report.Breaks) > 0 {
		m.AddRows(tableHeaderRow())
		m.AddRows(breakRows(report.Breaks)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(company, report)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar informe: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(company entity.Company, report fiscal.ChainReport, generatedAt time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIF: "+saft.NormalizeNIF(company.TaxID), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("VERIFICAÇÃO DA CADEIA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Série "+report.Series, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+generatedAt.UTC().Format("2006-01-02 15:04:05")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func summaryRows(report fiscal.ChainReport) []core.Row {
	status, color := "ÍNTEGRA", colorOK
	if !report.Valid {
		status, color = fmt.Sprintf("QUEBRADA (%d ruturas)", len(report.Breaks)), colorBroken
	}
	rows := []core.Row{
		row.New(8).Add(
			col.New(4).Add(text.New("Documentos selados: "+strconv.Itoa(report.Documents), props.Text{Size: 9, Top: 2})),
			col.New(8).Add(text.New("Estado: "+status, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: color, Top: 2,
			})),
		),
	}
	if report.LastHash != "" {
		rows = append(rows,
			row.New(5).Add(col.New(12).Add(text.New("Último hash:", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}))),
			row.New(4).Add(col.New(12).Add(text.New(report.LastHash, props.Text{Size: 7, Color: colorGray, Left: 2}))),
		)
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2, Left: 1,
		}))
	}
	return row.New(8).Add(
		h("Documento", 3),
		h("Campo", 2),
		h("Esperado", 4),
		h("Armazenado", 3),
	)
}

// breakRows una fila por ruptura; los hashes se parten para que quepan.
func breakRows(breaks []fiscal.VerificationResult) []core.Row {
	cell := func(s string, size int) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 6.5, Top: 1, Left: 1}))
	}
	out := make([]core.Row, 0, len(breaks))
	for _, b := range breaks {
		height := 4.0 * float64(max(1, len(splitEvery(b.Expected, 32)), len(splitEvery(b.Actual, 24))))
		out = append(out, row.New(height+3).Add(
			cell(b.DocumentID, 3),
			cell(b.Field, 2),
			cell(strings.Join(splitEvery(b.Expected, 32), "\n"), 4),
			cell(strings.Join(splitEvery(b.Actual, 24), "\n"), 3),
		))
	}
	return out
}

func footerRows(company entity.Company, report fiscal.ChainReport) []core.Row {
	rows := []core.Row{line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3})}

	if report.LastIUD != "" {
		rows = append(rows, row.New(45).Add(
			col.New(4).Add(code.NewQr("IUD:"+report.LastIUD, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Último documento da série:", props.Text{Size: 8, Top: 4, Left: 3, Color: colorGray}),
				text.New(report.LastIUD, props.Text{Style: fontstyle.Bold, Size: 8, Top: 10, Left: 3}),
			),
		))
	}

	cert := nonEmpty(company.SoftwareCertificate, saft.PlaceholderCertificateNumber)
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Processado por programa certificado n.º %s (%s %s).",
			cert, nonEmpty(company.ProductID, "-"), nonEmpty(company.SoftwareVersion, "-")),
			props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
