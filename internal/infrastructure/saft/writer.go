// Package saft serializa, empaqueta y relee el SAF-T (CV) del motor fiscal.
package saft

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// Charsets admitidos para la exportación.
const (
	CharsetUTF8        = "UTF-8"
	CharsetWindows1252 = "Windows-1252"
)

var _ billing.AuditFileEncoder = (*Encoder)(nil)

// Encoder escribe el AuditFile con encoding/xml token a token, en orden fijo.
type Encoder struct {
	charset string
}

// NewEncoder crea el codificador para el charset indicado ("" = UTF-8).
func NewEncoder(charset string) (*Encoder, error) {
	switch strings.ToUpper(charset) {
	case "", "UTF-8", "UTF8":
		return &Encoder{charset: CharsetUTF8}, nil
	case "WINDOWS-1252", "CP1252":
		return &Encoder{charset: CharsetWindows1252}, nil
	}
	return nil, fmt.Errorf("saft: charset no soportado %q", charset)
}

// Charset charset de salida.
func (e *Encoder) Charset() string { return e.charset }

// Encode genera el XML completo. Mismos datos, mismos bytes.
func (e *Encoder) Encode(data *billing.AuditData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("saft: faltan datos de exportación")
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="` + e.charset + `"?>` + "\n")

	w := &xmlWriter{enc: xml.NewEncoder(&buf)}
	w.enc.Indent("", "  ")

	w.start("AuditFile", xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: saft.Namespace})
	writeHeader(w, data)

	w.start("MasterFiles")
	writeCustomers(w, data.Customers)
	writeProducts(w, data.Products)
	writeTaxTable(w, data.TaxRates)
	w.end("MasterFiles")

	w.start("SourceDocuments")
	writeSalesInvoices(w, data)
	w.end("SourceDocuments")

	w.end("AuditFile")
	if w.err != nil {
		return nil, fmt.Errorf("saft: codificar XML: %w", w.err)
	}
	if err := w.enc.Flush(); err != nil {
		return nil, fmt.Errorf("saft: codificar XML: %w", err)
	}
	buf.WriteString("\n")

	if e.charset == CharsetUTF8 {
		return buf.Bytes(), nil
	}
	out, _, err := transform.Bytes(encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("saft: convertir a %s: %w", e.charset, err)
	}
	return out, nil
}

// Digest SHA-256 (hex) del XML canonicalizado (C14N 1.0). La declaración se
// descarta y el contenido se pasa a UTF-8, así la huella no depende del charset.
func (e *Encoder) Digest(content []byte) (string, error) {
	body, err := declaredToUTF8(content)
	if err != nil {
		return "", err
	}
	dec := xml.NewDecoder(bytes.NewReader(stripDeclaration(body)))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("saft: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Secciones
// ──────────────────────────────────────────────────────────────────────────────

func writeHeader(w *xmlWriter, data *billing.AuditData) {
	c := data.Company
	country := c.CountryCode
	if country == "" {
		country = saft.CountryCV
	}
	currency := c.Currency
	if currency == "" {
		currency = saft.CurrencyCVE
	}
	cert := c.SoftwareCertificate
	if cert == "" {
		cert = saft.PlaceholderCertificateNumber
	}
	nif := saft.NormalizeNIF(c.TaxID)

	w.start("Header")
	w.elem("AuditFileVersion", saft.AuditFileVersion)
	w.elem("CompanyID", nif)
	w.elem("TaxRegistrationNumber", nif)
	w.elem("TaxAccountingBasis", saft.TaxAccountingBasis)
	w.elem("CompanyName", c.Name)
	w.start("CompanyAddress")
	w.elem("StreetName", c.StreetName)
	w.optional("Number", c.Number)
	w.elem("City", c.City)
	w.elem("PostalCode", c.PostalCode)
	w.elem("Country", country)
	w.end("CompanyAddress")
	w.elem("FiscalYear", strconv.Itoa(data.Start.Year()))
	w.elem("StartDate", data.Start.Format("2006-01-02"))
	w.elem("EndDate", data.End.Format("2006-01-02"))
	w.elem("CurrencyCode", currency)
	// DateCreated = fin del rango
	w.elem("DateCreated", data.End.Format("2006-01-02"))
	w.elem("SoftwareCertificateNumber", cert)
	w.elem("ProductID", c.ProductID+"/"+c.SoftwareVersion)
	w.elem("ProductVersion", c.SoftwareVersion)
	w.elem("ProductCompanyTaxID", nif)
	w.end("Header")
}

func writeCustomers(w *xmlWriter, customers []*entity.Customer) {
	for _, c := range customers {
		w.start("Customer")
		w.elem("CustomerID", c.TaxID)
		w.elem("AccountID", "CLI-"+c.TaxID)
		w.elem("CustomerTaxID", c.TaxID)
		w.elem("CompanyName", c.Name)
		if c.City != "" {
			w.start("BillingAddress")
			w.elem("City", c.City)
			w.elem("Country", saft.CountryCV)
			w.end("BillingAddress")
		}
		w.elem("Telephone", orNA(c.Phone))
		w.elem("SelfBillingIndicator", "0")
		w.end("Customer")
	}

	// exactamente una entrada de Consumidor Final, siempre al final
	w.start("Customer")
	w.elem("CustomerID", saft.FinalConsumerID)
	w.elem("AccountID", saft.FinalConsumerAccountID)
	w.elem("CustomerTaxID", saft.FinalConsumerTaxID)
	w.elem("CompanyName", saft.FinalConsumerName)
	w.elem("Telephone", "N/A")
	w.elem("SelfBillingIndicator", "0")
	w.end("Customer")
}

func writeProducts(w *xmlWriter, products []*entity.Product) {
	for _, p := range products {
		kind := p.Type
		if kind == "" {
			kind = saft.ProductTypeGood
		}
		w.start("Product")
		w.elem("ProductType", kind)
		w.elem("ProductCode", p.Code)
		w.elem("ProductDescription", p.Description)
		w.elem("ProductNumberCode", p.Code)
		w.end("Product")
	}
}

func writeTaxTable(w *xmlWriter, rates []*entity.TaxRate) {
	w.start("TaxTable")
	for _, t := range rates {
		w.start("TaxTableEntry")
		w.elem("TaxType", t.Type)
		w.elem("TaxCountryRegion", t.Region)
		w.elem("TaxCode", t.Code)
		w.elem("Description", t.Description)
		w.elem("TaxPercentage", amount(t.Percentage))
		w.end("TaxTableEntry")
	}
	w.end("TaxTable")
}

func writeSalesInvoices(w *xmlWriter, data *billing.AuditData) {
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, d := range data.Documents {
		if isCredit(d) {
			totalDebit = totalDebit.Add(d.NetAmount)
		} else {
			totalCredit = totalCredit.Add(d.NetAmount)
		}
	}

	w.start("SalesInvoices")
	w.elem("NumberOfEntries", strconv.Itoa(len(data.Documents)))
	w.elem("TotalDebit", amount(totalDebit))
	w.elem("TotalCredit", amount(totalCredit))
	for _, d := range data.Documents {
		writeInvoice(w, d, data.Originals[d.OriginalDocumentID], data.Company.SoftwareCertificate)
	}
	w.end("SalesInvoices")
}

func writeInvoice(w *xmlWriter, d *entity.FiscalDocument, original *entity.FiscalDocument, cert string) {
	if cert == "" {
		cert = saft.PlaceholderCertificateNumber
	}
	entryDate := d.IssueDate.Format("2006-01-02") + "T" + d.IssueTime
	if d.SealedAt != nil {
		entryDate = d.SealedAt.UTC().Format("2006-01-02T15:04:05")
	}
	customerID := saft.FinalConsumerID
	if !saft.IsFinalConsumer(d.CustomerTaxID) {
		customerID = d.CustomerTaxID
	}

	w.start("Invoice")
	w.elem("InvoiceNo", d.DocumentNumber())
	w.elem("ATCUD", d.DocumentIdentifier)
	w.start("DocumentStatus")
	w.elem("InvoiceStatus", saft.InvoiceStatusNormal)
	w.elem("InvoiceStatusDate", entryDate)
	w.elem("SourceID", sourceID(d))
	w.elem("SourceBilling", saft.SourceBillingProgram)
	w.end("DocumentStatus")
	w.elem("Hash", d.ChainHash)
	w.elem("HashControl", cert)
	w.elem("InvoiceDate", d.IssueDate.Format("2006-01-02"))
	w.elem("InvoiceType", d.DocumentType.Code())
	w.elem("SourceID", sourceID(d))
	w.elem("SystemEntryDate", entryDate)
	w.elem("CustomerID", customerID)

	for _, l := range d.Lines {
		writeLine(w, d, l, original)
	}

	w.start("DocumentTotals")
	w.elem("TaxPayable", amount(d.TaxAmount))
	w.elem("NetTotal", amount(d.NetAmount))
	w.elem("GrossTotal", amount(d.GrandTotal))
	w.end("DocumentTotals")
	w.end("Invoice")
}

func writeLine(w *xmlWriter, d *entity.FiscalDocument, l entity.DocumentLine, original *entity.FiscalDocument) {
	taxCode := l.TaxCode
	if taxCode == "" {
		taxCode = saft.TaxCodeNormal
	}
	w.start("Line")
	w.elem("LineNumber", strconv.Itoa(l.LineNumber))
	w.elem("ProductCode", l.ProductCode)
	w.elem("ProductDescription", l.Description)
	w.elem("Quantity", l.Quantity.Abs().String())
	w.elem("UnitOfMeasure", saft.UnitOfMeasure)
	w.elem("UnitPrice", amount(l.UnitPrice))
	w.elem("TaxPointDate", d.IssueDate.Format("2006-01-02"))
	if isCredit(d) {
		ref := d.OriginalDocumentID
		if original != nil {
			ref = original.DocumentNumber()
		}
		reason := d.CreditReasonCode.Description()
		if d.CreditDescription != "" {
			reason += " - " + d.CreditDescription
		}
		w.start("References")
		w.elem("Reference", ref)
		w.elem("Reason", reason)
		w.end("References")
	}
	w.elem("Description", l.Description)
	if isCredit(d) {
		w.elem("DebitAmount", amount(l.NetAmount))
	} else {
		w.elem("CreditAmount", amount(l.NetAmount))
	}
	w.start("Tax")
	w.elem("TaxType", saft.TaxTypeIVA)
	w.elem("TaxCountryRegion", saft.CountryCV)
	w.elem("TaxCode", taxCode)
	w.elem("TaxPercentage", amount(l.TaxPercentage))
	w.end("Tax")
	w.end("Line")
}

func isCredit(d *entity.FiscalDocument) bool {
	return d.IsCreditNote || d.DocumentType == entity.DocumentTypeCreditNote
}

func sourceID(d *entity.FiscalDocument) string {
	if d.SourceRef != "" {
		return d.SourceRef
	}
	return "SISTEMA"
}

// amount 2 decimales, punto como separador, nunca negativo.
func amount(d decimal.Decimal) string {
	return d.Abs().Round(2).StringFixed(2)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// xmlWriter guarda el primer error para no chequear cada token
// ──────────────────────────────────────────────────────────────────────────────

type xmlWriter struct {
	enc *xml.Encoder
	err error
}

func (w *xmlWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *xmlWriter) start(local string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs})
}

func (w *xmlWriter) end(local string) {
	w.token(xml.EndElement{Name: xml.Name{Local: local}})
}

func (w *xmlWriter) elem(local, value string) {
	w.start(local)
	w.token(xml.CharData(value))
	w.end(local)
}

func (w *xmlWriter) optional(local, value string) {
	if value != "" {
		w.elem(local, value)
	}
}
