package saft

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain/fiscal"
)

// AuditFile vista mínima de un SAF-T leído: cabecera y facturas.
type AuditFile struct {
	CompanyID          string
	StartDate          string
	EndDate            string
	CertificateNumber  string
	Customers          int
	FinalConsumerCount int
	Invoices           []InvoiceRecord
}

// InvoiceRecord datos de una factura necesarios para recalcular su hash.
type InvoiceRecord struct {
	InvoiceNo  string // "FT A/12"
	Type       string
	Series     string
	Sequence   int64
	Date       string // YYYY-MM-DD
	GrossTotal decimal.Decimal
	Hash       string
	CustomerID string
}

// LinkBreak eslabón que no coincide con el recalculado.
type LinkBreak struct {
	InvoiceNo string
	Expected  string
	Actual    string
}

// FileReport resultado de verificar los hashes de un archivo.
type FileReport struct {
	Invoices   int
	Verified   int // hashes recalculados
	Unanchored int // primer documento de una serie cuyo predecesor no está en el archivo
	Breaks     []LinkBreak
}

// Valid indica que todos los eslabones verificables coinciden.
func (r FileReport) Valid() bool { return len(r.Breaks) == 0 }

// ReadAuditFile parsea un SAF-T en cualquier charset habitual.
func ReadAuditFile(r io.Reader) (*AuditFile, error) {
	utf8Reader, err := newUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("saft: detectar charset: %w", err)
	}
	doc := etree.NewDocument()
	// el contenido ya es UTF-8 aunque la declaración diga otra cosa
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if _, err := doc.ReadFrom(utf8Reader); err != nil {
		return nil, fmt.Errorf("saft: leer XML: %w", err)
	}

	root := doc.SelectElement("AuditFile")
	if root == nil {
		return nil, fmt.Errorf("saft: falta el elemento AuditFile")
	}
	out := &AuditFile{}
	if h := root.SelectElement("Header"); h != nil {
		out.CompanyID = childText(h, "CompanyID")
		out.StartDate = childText(h, "StartDate")
		out.EndDate = childText(h, "EndDate")
		out.CertificateNumber = childText(h, "SoftwareCertificateNumber")
	}
	for _, c := range root.FindElements("./MasterFiles/Customer") {
		out.Customers++
		if childText(c, "CustomerID") == "FINAL" {
			out.FinalConsumerCount++
		}
	}
	for _, inv := range root.FindElements("./SourceDocuments/SalesInvoices/Invoice") {
		rec, err := parseInvoice(inv)
		if err != nil {
			return nil, err
		}
		out.Invoices = append(out.Invoices, rec)
	}
	return out, nil
}

func parseInvoice(inv *etree.Element) (InvoiceRecord, error) {
	rec := InvoiceRecord{
		InvoiceNo:  childText(inv, "InvoiceNo"),
		Type:       childText(inv, "InvoiceType"),
		Date:       childText(inv, "InvoiceDate"),
		Hash:       childText(inv, "Hash"),
		CustomerID: childText(inv, "CustomerID"),
	}
	series, seq, err := splitInvoiceNo(rec.InvoiceNo)
	if err != nil {
		return rec, err
	}
	rec.Series, rec.Sequence = series, seq

	gross := ""
	if totals := inv.SelectElement("DocumentTotals"); totals != nil {
		gross = childText(totals, "GrossTotal")
	}
	if rec.GrossTotal, err = decimal.NewFromString(gross); err != nil {
		return rec, fmt.Errorf("saft: %s: GrossTotal inválido %q", rec.InvoiceNo, gross)
	}
	if _, err := time.Parse("2006-01-02", rec.Date); err != nil {
		return rec, fmt.Errorf("saft: %s: InvoiceDate inválida %q", rec.InvoiceNo, rec.Date)
	}
	return rec, nil
}

// splitInvoiceNo "FT A/12" → ("A", 12).
func splitInvoiceNo(no string) (string, int64, error) {
	_, rest, ok := strings.Cut(strings.TrimSpace(no), " ")
	if !ok {
		return "", 0, fmt.Errorf("saft: InvoiceNo inválido %q", no)
	}
	slash := strings.LastIndex(rest, "/")
	if slash <= 0 {
		return "", 0, fmt.Errorf("saft: InvoiceNo inválido %q", no)
	}
	seq, err := strconv.ParseInt(rest[slash+1:], 10, 64)
	if err != nil || seq <= 0 {
		return "", 0, fmt.Errorf("saft: InvoiceNo inválido %q", no)
	}
	return rest[:slash], seq, nil
}

// VerifyHashes recalcula la cadena de cada serie del archivo. Un documento se
// encadena con el de número inmediatamente anterior; el número 1 con ZeroHash.
// Si el anterior no está en el archivo el documento queda sin anclar.
func VerifyHashes(file *AuditFile) FileReport {
	report := FileReport{Invoices: len(file.Invoices)}

	bySeries := map[string][]InvoiceRecord{}
	var names []string
	for _, inv := range file.Invoices {
		if _, ok := bySeries[inv.Series]; !ok {
			names = append(names, inv.Series)
		}
		bySeries[inv.Series] = append(bySeries[inv.Series], inv)
	}
	sort.Strings(names)

	for _, name := range names {
		invs := bySeries[name]
		sort.SliceStable(invs, func(i, j int) bool { return invs[i].Sequence < invs[j].Sequence })
		for i, inv := range invs {
			prev := ""
			switch {
			case inv.Sequence == 1:
				prev = fiscal.ZeroHash
			case i > 0 && invs[i-1].Sequence == inv.Sequence-1:
				prev = invs[i-1].Hash
			default:
				report.Unanchored++
				continue
			}
			expected := fiscal.ChainInput{
				IssueDate:      inv.Date,
				DocumentNumber: strconv.FormatInt(inv.Sequence, 10),
				GrandTotal:     inv.GrossTotal.Round(2).StringFixed(2),
				PreviousHash:   prev,
			}.Hash()
			report.Verified++
			if expected != inv.Hash {
				report.Breaks = append(report.Breaks, LinkBreak{InvoiceNo: inv.InvoiceNo, Expected: expected, Actual: inv.Hash})
			}
		}
	}
	return report
}

func childText(e *etree.Element, tag string) string {
	if c := e.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
