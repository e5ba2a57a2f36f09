package entity

import "github.com/shopspring/decimal"

// DocumentLine línea de detalle de un documento fiscal.
type DocumentLine struct {
	ID            string
	DocumentID    string
	LineNumber    int
	ProductCode   string
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal // sin impuesto
	TaxCode       string          // NOR, RED, ISE
	TaxPercentage decimal.Decimal // 15 = 15%
	NetAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
}

// Equal compara los valores fiscales de dos líneas (decimales por valor, no por representación).
func (l DocumentLine) Equal(o DocumentLine) bool {
	return l.ID == o.ID &&
		l.LineNumber == o.LineNumber &&
		l.ProductCode == o.ProductCode &&
		l.Description == o.Description &&
		l.Quantity.Equal(o.Quantity) &&
		l.UnitPrice.Equal(o.UnitPrice) &&
		l.TaxCode == o.TaxCode &&
		l.TaxPercentage.Equal(o.TaxPercentage) &&
		l.NetAmount.Equal(o.NetAmount) &&
		l.TaxAmount.Equal(o.TaxAmount)
}
