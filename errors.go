package httpcontract

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/starius/httpcontract/closingclient"
)

// Reasons of contract violations. ContractViolation wraps one of them,
// so they can be checked with errors.Is.
var (
	ErrMissingDescriptor   = errors.New("missing endpoint descriptor")
	ErrMalformedDescriptor = errors.New("malformed endpoint descriptor")
	ErrOutputParameter     = errors.New("output parameters not allowed")
	ErrMultipleBodies      = errors.New("at most one body parameter allowed")
	ErrUnsupportedShape    = errors.New("unsupported return shape")
	ErrMissingContext      = errors.New("first parameter must be context.Context")
	ErrVariadic            = errors.New("variadic parameters not allowed")
	ErrParameterNames      = errors.New("parameter names do not match arguments")
	ErrInvalidContract     = errors.New("contract must be a non-nil pointer to a struct")
	ErrAbstractAdapter     = errors.New("adapter must be a concrete implementation")
	ErrAlreadyRegistered   = errors.New("contract is already registered")
	ErrNotRegistered       = errors.New("contract is not registered")
)

// ErrClosed is returned by calls made after Client.Close.
var ErrClosed = closingclient.ErrClosed

// ContractViolation is a structural misuse of a contract. It is detected
// before any network action and is never retried.
type ContractViolation struct {
	Contract string
	Method   string
	Err      error
}

func (e *ContractViolation) Error() string {
	switch {
	case e.Method != "":
		return fmt.Sprintf("contract %s.%s: %v", e.Contract, e.Method, e.Err)
	case e.Contract != "":
		return fmt.Sprintf("contract %s: %v", e.Contract, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ContractViolation) Unwrap() error {
	return e.Err
}

// TransportFailure means that the server answered with a non-2xx status.
type TransportFailure struct {
	StatusCode int
	Status     string

	// Message is taken from the JSON error envelope if the server sent one,
	// otherwise it is the (trimmed) body text.
	Message string

	// Code is the machine-readable code from the error envelope, if any.
	Code string

	Header http.Header

	// Request is the request which produced the response.
	Request *http.Request
}

func (e *TransportFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned HTTP status %s", e.Status)
	}
	return fmt.Sprintf("API returned error with HTTP status %s: %s", e.Status, e.Message)
}

// SerializationFailure means that a body could not be encoded or that
// a response could not be decoded into the requested type.
type SerializationFailure struct {
	// Op is "encode", "decode" or "validate".
	Op   string
	Type reflect.Type
	Err  error
}

func (e *SerializationFailure) Error() string {
	return fmt.Sprintf("failed to %s %v: %v", e.Op, e.Type, e.Err)
}

func (e *SerializationFailure) Unwrap() error {
	return e.Err
}
