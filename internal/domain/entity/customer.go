package entity

import "time"

// Customer cliente identificado del directorio (NIF de Cabo Verde).
type Customer struct {
	ID        string
	TaxID     string // NIF, 9 dígitos
	Name      string
	Phone     string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
