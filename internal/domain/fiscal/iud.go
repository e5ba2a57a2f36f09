package fiscal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/pkg/saft"
)

// Anchos fijos de las partes del IUD.
const (
	IUDLength      = 45
	iudCountryLen  = 2
	iudDateLen     = 8
	iudTaxIDLen    = 9
	iudTypeLen     = 2
	iudSequenceLen = 8
	iudControlLen  = 16
)

// IUDGenerator construye el Identificador Único de Documento.
type IUDGenerator struct {
	CountryCode  string
	EmitterTaxID string
}

// NewIUDGenerator construye el generador para el emisor.
func NewIUDGenerator(countryCode, emitterTaxID string) *IUDGenerator {
	return &IUDGenerator{CountryCode: countryCode, EmitterTaxID: emitterTaxID}
}

// IUDParts partes del IUD antes del dígito de control.
type IUDParts struct {
	Country  string
	Date     string
	TaxID    string
	TypeCode string
	Sequence string
}

// Prefix concatenación de las cinco partes (29 caracteres).
func (p IUDParts) Prefix() string {
	return p.Country + p.Date + p.TaxID + p.TypeCode + p.Sequence
}

// Parts calcula las partes de ancho fijo para el documento.
func (g *IUDGenerator) Parts(doc *entity.FiscalDocument) IUDParts {
	typeCode := doc.DocumentType.Code()
	if doc.IsCreditNote {
		// las notas de crédito usan siempre el código de corrección
		typeCode = saft.InvoiceTypeNotaCredito
	}
	return IUDParts{
		Country:  fixRight(strings.ToUpper(g.CountryCode), iudCountryLen, 'X'),
		Date:     doc.IssueDate.Format("20060102"),
		TaxID:    padLeftOrTruncate(saft.NormalizeNIF(g.EmitterTaxID), iudTaxIDLen),
		TypeCode: fixRight(typeCode, iudTypeLen, 'X'),
		Sequence: lastDigits(doc.SequenceNumber, iudSequenceLen),
	}
}

// Generate devuelve el IUD de exactamente 45 caracteres.
func (g *IUDGenerator) Generate(doc *entity.FiscalDocument) string {
	prefix := g.Parts(doc).Prefix()
	sum := sha256.Sum256([]byte(prefix))
	control := strings.ToUpper(hex.EncodeToString(sum[:]))[:iudControlLen]
	return fixRight(prefix+control, IUDLength, '0')
}

// padLeftOrTruncate rellena con ceros a la izquierda o corta a los primeros n caracteres.
func padLeftOrTruncate(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return strings.Repeat("0", n-len(s)) + s
}

// lastDigits número con ceros a la izquierda; si excede n dígitos conserva los n menos significativos.
func lastDigits(v int64, n int) string {
	if v < 0 {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return strings.Repeat("0", n-len(s)) + s
}

// fixRight corta o rellena por la derecha hasta n caracteres.
func fixRight(s string, n int, pad byte) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(string(pad), n-len(s))
}
