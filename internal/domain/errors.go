package domain

import (
	"errors"
	"fmt"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Motor fiscal.
	ErrValidation              = errors.New("validación fallida")
	ErrProtectedField          = errors.New("campo protegido de un documento sellado")
	ErrImmutableDeletion       = errors.New("un documento sellado no puede eliminarse")
	ErrChainIntegrity          = errors.New("integridad de la cadena comprometida")
	ErrIneligibleForCorrection = errors.New("documento no elegible para corrección")
	ErrSequenceConflict        = errors.New("conflicto de secuencia en la serie")
	ErrAlreadySealed           = errors.New("el documento ya está sellado")
	ErrInvalidState            = errors.New("estado del documento inválido para la operación")
	ErrInvalidRange            = errors.New("rango de fechas inválido")
)

// ValidationError borrador mal formado, monto no positivo, etc.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ProtectedFieldError intento de modificar un campo fiscal de un documento sellado.
type ProtectedFieldError struct {
	DocumentID string
	Field      string
}

func (e *ProtectedFieldError) Error() string {
	return fmt.Sprintf("documento %s: el campo %q está protegido", e.DocumentID, e.Field)
}

func (e *ProtectedFieldError) Unwrap() error { return ErrProtectedField }

// ImmutableDeletionError intento de eliminar un documento sellado.
type ImmutableDeletionError struct {
	DocumentID string
}

func (e *ImmutableDeletionError) Error() string {
	return fmt.Sprintf("documento %s: sellado, no puede eliminarse", e.DocumentID)
}

func (e *ImmutableDeletionError) Unwrap() error { return ErrImmutableDeletion }

// ChainIntegrityError el valor almacenado no coincide con el recalculado.
type ChainIntegrityError struct {
	DocumentID string
	Field      string
	Expected   string
	Actual     string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("documento %s: %s no coincide (esperado %q, almacenado %q)",
		e.DocumentID, e.Field, e.Expected, e.Actual)
}

func (e *ChainIntegrityError) Unwrap() error { return ErrChainIntegrity }

// IneligibleError nota de crédito pedida contra un documento no sellado o que ya es nota de crédito.
type IneligibleError struct {
	DocumentID string
	Reason     string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("documento %s no elegible para corrección: %s", e.DocumentID, e.Reason)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligibleForCorrection }

// SequenceConflictError dos sellados compitieron por el mismo predecesor o número.
type SequenceConflictError struct {
	Series string
	Reason string
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("serie %s: conflicto de secuencia: %s", e.Series, e.Reason)
}

func (e *SequenceConflictError) Unwrap() error { return ErrSequenceConflict }

// AlreadySealedError el documento ya fue sellado.
type AlreadySealedError struct {
	DocumentID string
}

func (e *AlreadySealedError) Error() string {
	return fmt.Sprintf("documento %s: ya está sellado", e.DocumentID)
}

func (e *AlreadySealedError) Unwrap() error { return ErrAlreadySealed }

// InvalidStateError al borrador le falta un dato requerido para sellar.
type InvalidStateError struct {
	DocumentID string
	Field      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("documento %s: falta %s", e.DocumentID, e.Field)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// InvalidRangeError fecha final anterior a la inicial. Es también un error de validación.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("rango inválido: %s > %s", e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

func (e *InvalidRangeError) Unwrap() []error { return []error{ErrInvalidRange, ErrValidation} }
