package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product artículo vendible referenciado por las líneas (MasterFiles/Product en SAF-T).
type Product struct {
	ID          string
	Code        string // ProductCode, único
	Description string
	Type        string // P = produto, S = serviço
	Price       decimal.Decimal
	TaxCode     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaxRate entrada de la tabla de impuestos.
type TaxRate struct {
	Type        string // IVA
	Region      string // CV
	Code        string // NOR, RED, ISE
	Description string
	Percentage  decimal.Decimal
}
