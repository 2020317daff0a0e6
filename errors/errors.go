// Package errors classifies errors of httpcontract clients into gRPC codes.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/starius/httpcontract"
	"google.golang.org/grpc/codes"
)

// maxCode is the largest code defined in the codes package.
const maxCode = codes.Unauthenticated

var statusToCode = buildStatusToCode()

// Inverse of runtime.HTTPStatusFromCode. If several codes share a status,
// the smallest code wins, except for 500 which is Internal.
func buildStatusToCode() map[int]codes.Code {
	m := make(map[int]codes.Code)
	for code := codes.OK; code <= maxCode; code++ {
		status := runtime.HTTPStatusFromCode(code)
		if _, has := m[status]; !has {
			m[status] = code
		}
	}
	m[http.StatusInternalServerError] = codes.Internal
	return m
}

// FromHTTPStatus returns the code corresponding to HTTP status.
// Unknown statuses give codes.Unknown.
func FromHTTPStatus(status int) codes.Code {
	if code, has := statusToCode[status]; has {
		return code
	}
	return codes.Unknown
}

// Code returns the code of an error returned by a contract method.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var violation *httpcontract.ContractViolation
	if errors.As(err, &violation) {
		return codes.FailedPrecondition
	}
	var failure *httpcontract.TransportFailure
	if errors.As(err, &failure) {
		return FromHTTPStatus(failure.StatusCode)
	}
	var serialization *httpcontract.SerializationFailure
	if errors.As(err, &serialization) {
		return codes.Internal
	}

	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, httpcontract.ErrClosed):
		return codes.Unavailable
	}
	return codes.Unknown
}

// HTTPStatus is the HTTP status which a server would use for err.
func HTTPStatus(err error) int {
	var failure *httpcontract.TransportFailure
	if errors.As(err, &failure) {
		return failure.StatusCode
	}
	return runtime.HTTPStatusFromCode(Code(err))
}
