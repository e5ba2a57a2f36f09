// Package efatura genera el XML e-Fatura (DFE) de cada documento sellado y lo
// deja en un directorio a la espera del envío a la DNRE.
package efatura

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

const (
	Namespace      = "urn:cv:efatura:xsd:v1.0"
	SchemaLocation = "urn:cv:efatura:xsd:v1.0 common/CV_EFatura_Invoice_v1.0.xsd"
	nsXsi          = "http://www.w3.org/2001/XMLSchema-instance"
)

// Build arma el DFE de un documento sellado. specimen marca el modo de prueba.
func Build(company entity.Company, doc *entity.FiscalDocument, specimen bool) ([]byte, error) {
	if doc == nil || !doc.IsSealed {
		return nil, fmt.Errorf("efatura: el documento debe estar sellado")
	}
	typeCode := saft.EFaturaTypeCodes[doc.DocumentType.Code()]

	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	dfe := x.CreateElement("Dfe")
	dfe.CreateAttr("xmlns", Namespace)
	dfe.CreateAttr("xmlns:xsi", nsXsi)
	dfe.CreateAttr("xsi:schemaLocation", SchemaLocation)
	dfe.CreateAttr("Version", "1.0")
	dfe.CreateAttr("Id", doc.DocumentIdentifier)
	dfe.CreateAttr("DocumentTypeCode", typeCode)
	dfe.CreateElement("IsSpecimen").SetText(strconv.FormatBool(specimen))

	inv := dfe.CreateElement("Invoice")
	inv.CreateElement("LedCode").SetText("1")
	inv.CreateElement("Serie").SetText(doc.Series)
	inv.CreateElement("DocumentNumber").SetText(strconv.FormatInt(doc.SequenceNumber, 10))
	issue := doc.IssueDate.Format("2006-01-02")
	inv.CreateElement("IssueDate").SetText(issue)
	inv.CreateElement("IssueTime").SetText(doc.IssueTime)
	inv.CreateElement("DueDate").SetText(issue)
	inv.CreateElement("TaxPointDate").SetText(issue)

	emitter := inv.CreateElement("EmitterParty")
	taxID := emitter.CreateElement("TaxId")
	taxID.CreateAttr("CountryCode", saft.CountryCV)
	taxID.SetText(saft.NormalizeNIF(company.TaxID))
	emitter.CreateElement("Name").SetText(company.Name)
	addr := emitter.CreateElement("Address")
	addr.CreateAttr("CountryCode", saft.CountryCV)
	detail := company.StreetName
	if company.Number != "" {
		detail += ", " + company.Number
	}
	addr.CreateElement("AddressDetail").SetText(detail + ", " + company.City + ", " + company.PostalCode)

	receiver := inv.CreateElement("ReceiverParty")
	rTaxID := receiver.CreateElement("TaxId")
	rTaxID.CreateAttr("CountryCode", saft.CountryCV)
	if saft.IsFinalConsumer(doc.CustomerTaxID) {
		rTaxID.SetText(saft.FinalConsumerTaxID)
		receiver.CreateElement("Name").SetText(saft.FinalConsumerName)
	} else {
		rTaxID.SetText(doc.CustomerTaxID)
		receiver.CreateElement("Name").SetText(doc.CustomerName)
	}

	if doc.IsCreditNote {
		ref := inv.CreateElement("References")
		ref.CreateElement("OriginDocumentId").SetText(doc.OriginalDocumentID)
		ref.CreateElement("Reason").SetText(doc.CreditReasonCode.Description())
	}

	lines := inv.CreateElement("Lines")
	for _, l := range doc.Lines {
		line := lines.CreateElement("Line")
		line.CreateAttr("LineTypeCode", "N")
		line.CreateElement("Id").SetText(strconv.Itoa(l.LineNumber))
		qty := line.CreateElement("Quantity")
		qty.CreateAttr("UnitCode", saft.UnitOfMeasure)
		qty.CreateAttr("IsStandardUnitCode", "true")
		qty.SetText(l.Quantity.String())
		line.CreateElement("Price").SetText(money(l.UnitPrice))
		line.CreateElement("PriceExtension").SetText(money(l.NetAmount))
		line.CreateElement("NetTotal").SetText(money(l.NetAmount))
		tax := line.CreateElement("Tax")
		tax.CreateAttr("TaxTypeCode", saft.TaxTypeIVA)
		tax.CreateElement("TaxPercentage").SetText(money(l.TaxPercentage))
		tax.CreateElement("TaxTotal").SetText(money(l.TaxAmount))
		item := line.CreateElement("Item")
		item.CreateElement("Description").SetText(l.Description)
		item.CreateElement("EmitterIdentification").SetText(l.ProductCode)
	}

	totals := inv.CreateElement("Totals")
	totals.CreateElement("TaxTotal").SetText(money(doc.TaxAmount))
	totals.CreateElement("NetTotal").SetText(money(doc.NetAmount))
	totals.CreateElement("GrandTotal").SetText(money(doc.GrandTotal))

	sw := inv.CreateElement("Software")
	sw.CreateElement("Code").SetText(company.SoftwareCertificate)
	sw.CreateElement("Name").SetText(company.ProductID)
	sw.CreateElement("Version").SetText(company.SoftwareVersion)

	dfe.CreateElement("QRCode").SetText(doc.QRData())
	dfe.CreateElement("Hash").SetText(doc.ChainHash)

	x.Indent(2)
	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("efatura: escribir XML: %w", err)
	}
	return out, nil
}

func money(d decimal.Decimal) string {
	return d.Abs().Round(2).StringFixed(2)
}
