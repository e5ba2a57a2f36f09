// Package fiscal contiene las reglas puras del motor de integridad fiscal:
// encadenamiento por hash, IUD, guardia de inmutabilidad, resolución del
// documento previo y verificación.
package fiscal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
)

// HashLength longitud en hex de un hash de cadena (SHA-256).
const HashLength = sha256.Size * 2

// ZeroHash marca el origen de la cadena de una serie.
var ZeroHash = strings.Repeat("0", HashLength)

// ChainInput campos que participan en el hash, en orden fijo.
type ChainInput struct {
	IssueDate      string // YYYY-MM-DD
	DocumentNumber string // número secuencial
	GrandTotal     string // 2 decimales
	PreviousHash   string
}

// ChainInputFor extrae los campos del documento para el hash.
func ChainInputFor(doc *entity.FiscalDocument, previousHash string) ChainInput {
	return ChainInput{
		IssueDate:      doc.IssueDate.Format("2006-01-02"),
		DocumentNumber: strconv.FormatInt(doc.SequenceNumber, 10),
		GrandTotal:     doc.GrandTotal.Round(2).StringFixed(2),
		PreviousHash:   previousHash,
	}
}

// Payload cadena exacta que se digiere: "fecha;número;total;hashPrevio".
func (in ChainInput) Payload() string {
	return strings.Join([]string{in.IssueDate, in.DocumentNumber, in.GrandTotal, in.PreviousHash}, ";")
}

// Hash SHA-256 del payload en hex minúsculas.
func (in ChainInput) Hash() string {
	sum := sha256.Sum256([]byte(in.Payload()))
	return hex.EncodeToString(sum[:])
}

// ComputeHash calcula el hash de cadena del documento. Función pura: no depende
// de reloj ni de estado; sirve tanto para sellar como para verificar.
func ComputeHash(doc *entity.FiscalDocument, previousHash string) string {
	return ChainInputFor(doc, previousHash).Hash()
}

// IsValidHash indica si s tiene la forma de un hash de cadena (64 hex minúsculas).
func IsValidHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
