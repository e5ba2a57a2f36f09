package saft

import (
	"fmt"
	"unicode"
)

// NIFLength longitud del Número de Identificação Fiscal en Cabo Verde.
const NIFLength = 9

// ValidateNIF valida que el NIF tenga exactamente 9 dígitos (se aceptan espacios y guiones).
func ValidateNIF(taxID string) error {
	digits := ExtractDigits(taxID)
	if len(digits) != len([]rune(stripSeparators(taxID))) {
		return fmt.Errorf("saft: NIF contiene caracteres no numéricos: %q", taxID)
	}
	if len(digits) != NIFLength {
		return fmt.Errorf("saft: NIF debe tener %d dígitos, se encontraron %d", NIFLength, len(digits))
	}
	return nil
}

// NormalizeNIF devuelve solo los dígitos del NIF.
func NormalizeNIF(taxID string) string {
	return string(ExtractDigits(taxID))
}

// ExtractDigits devuelve los dígitos ASCII de s en orden.
func ExtractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		}
	}
	return out
}

func stripSeparators(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
