package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
)

// ValidationError indica un valor de campo inválido. Se rechaza antes de persistir nada.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TransportError envuelve fallos del broker o de un almacén no disponible.
type TransportError struct {
	Op  string
	Err error
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeserializationError se produce cuando el payload de un evento es inválido o vacío.
type DeserializationError struct {
	EventType EventType
	Err       error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cannot decode %s payload: %v", e.EventType, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsDeserialization(err error) bool {
	var target *DeserializationError
	return errors.As(err, &target)
}
