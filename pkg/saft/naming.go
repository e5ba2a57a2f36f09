package saft

import (
	"fmt"
	"strings"
	"time"
)

// FileBaseName nombre del archivo de exportación sin extensión:
// SAFT_CV_<NIF>_<inicio>_<fin>.
func FileBaseName(nif string, start, end time.Time) string {
	return fmt.Sprintf("SAFT_CV_%s_%s_%s", NormalizeNIF(nif), start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// SubmissionFileName nombre del XML e-Fatura de un documento sellado:
// efatura_<código>_<serie>_<número>_<fecha>.xml.
func SubmissionFileName(typeCode, series string, sequence int64, issueDate time.Time) string {
	code, ok := EFaturaTypeCodes[typeCode]
	if !ok {
		code = "0"
	}
	return fmt.Sprintf("efatura_%s_%s_%d_%s.xml", code, FileToken(series), sequence, issueDate.Format("2006-01-02"))
}

// ChainReportFileName nombre del PDF de verificación de una serie.
func ChainReportFileName(series string) string {
	return "cadeia_" + FileToken(series) + ".pdf"
}

// FileToken deja solo letras ASCII, dígitos, '-' y '_'; el resto pasa a '_'.
// Apto para nombres de archivo y para Content-Disposition sin escapar.
func FileToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
