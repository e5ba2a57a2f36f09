// Package saft contiene catálogos y validaciones alineados al SAF-T CV
// (Portaria n.º 47/2021) y a la e-Fatura de Cabo Verde.
package saft

// =============================================================================
// Cabecera del AuditFile
// =============================================================================

const (
	Namespace          = "urn:OECD:Standard:AuditFile-CV:PT_1.04_01"
	AuditFileVersion   = "1.04_01"
	TaxAccountingBasis = "F" // F = Facturação, C = Caixa
	CountryCV          = "CV"
	CurrencyCVE        = "CVE"

	// Número de certificado del software hasta que la DNRE asigne uno oficial.
	PlaceholderCertificateNumber = "0"
)

// =============================================================================
// Tipos de documento (InvoiceType) y códigos e-Fatura
// =============================================================================

const (
	InvoiceTypeFatura       = "FT" // Fatura
	InvoiceTypeFaturaRecibo = "FR" // Fatura-Recibo
	InvoiceTypeNotaCredito  = "NC" // Nota de Crédito
	InvoiceTypeTalaoVenda   = "TV" // Talão de Venda
)

// EFaturaTypeCodes códigos numéricos de tipo de documento en la e-Fatura.
var EFaturaTypeCodes = map[string]string{
	InvoiceTypeFatura:       "1",
	InvoiceTypeFaturaRecibo: "2",
	InvoiceTypeTalaoVenda:   "3",
	InvoiceTypeNotaCredito:  "5",
}

// =============================================================================
// Consumidor Final (ventas anónimas)
// =============================================================================

const (
	FinalConsumerID        = "FINAL"
	FinalConsumerAccountID = "CLI-FINAL"
	FinalConsumerTaxID     = "999999999"
	FinalConsumerName      = "Consumidor Final"
)

// IsFinalConsumer indica si el NIF corresponde al consumidor final (vacío o genérico).
func IsFinalConsumer(taxID string) bool {
	return taxID == "" || taxID == FinalConsumerTaxID
}

// =============================================================================
// Impuestos (TaxTable)
// =============================================================================

const (
	TaxTypeIVA     = "IVA"
	TaxCodeNormal  = "NOR"
	TaxCodeReduced = "RED"
	TaxCodeExempt  = "ISE"
)

// TaxEntry entrada de la tabla de impuestos.
type TaxEntry struct {
	Type        string
	Region      string
	Code        string
	Description string
	Percentage  string // siempre con 2 decimales
}

// DefaultTaxTable tabla usada cuando el directorio no tiene tasas configuradas.
var DefaultTaxTable = []TaxEntry{
	{Type: TaxTypeIVA, Region: CountryCV, Code: TaxCodeNormal, Description: "IVA Normal", Percentage: "15.00"},
}

// =============================================================================
// Líneas y productos
// =============================================================================

const (
	UnitOfMeasure   = "UN"
	ProductTypeGood = "P" // Produto
	ProductService  = "S" // Serviço

	InvoiceStatusNormal  = "N"
	SourceBillingProgram = "P" // documento producido por el programa

	// Código de producto de las líneas de nota de crédito.
	CreditAdjustmentProductCode = "NC-AJUSTE"
)
