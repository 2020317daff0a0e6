package httpcontract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport sends requests. *http.Client implements it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// Adapter converts calls to HTTP requests and HTTP responses to results.
//
// Every hook receives the tags of the endpoint being called. The slice is
// a copy made for the call.
// Implementations must be safe for concurrent use.
//
// To implement an adapter, embed BaseAdapter and define BuildRequest and
// DecodeResponse. Send, ProcessResponse and BuildQueryString can be
// redefined as well.
type Adapter interface {
	// BuildRequest creates the request. body is nil if the method has
	// no body parameter.
	BuildRequest(ctx context.Context, verb, uri string, body interface{}, tags []string) (*http.Request, error)

	// Send passes the request to the transport.
	Send(ctx context.Context, t Transport, req *http.Request, tags []string) (*http.Response, error)

	// ProcessResponse is called for methods without a result. It returns
	// an error if the response is not successful.
	ProcessResponse(ctx context.Context, res *http.Response, tags []string) error

	// DecodeResponse is called for methods with a result. result is
	// a pointer to a zero value of the result type.
	DecodeResponse(ctx context.Context, res *http.Response, result interface{}, tags []string) error
}

// BaseAdapter provides default behavior of Adapter. It does not
// implement Adapter by itself and is meant to be embedded.
type BaseAdapter struct{}

// Send calls t.Do and links the response to the request.
func (BaseAdapter) Send(ctx context.Context, t Transport, req *http.Request, tags []string) (*http.Response, error) {
	res, err := t.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	res.Request = req
	return res, nil
}

// ProcessResponse returns *TransportFailure for non-2xx responses.
func (BaseAdapter) ProcessResponse(ctx context.Context, res *http.Response, tags []string) error {
	return CheckStatus(res)
}

// BuildQueryString calls the package-level BuildQueryString.
func (BaseAdapter) BuildQueryString(params []UriParameter, tags []string) (string, error) {
	return BuildQueryString(params, tags)
}

// maxErrorBody limits how much of a failed response is kept in the error.
const maxErrorBody = 4096

// CheckStatus returns nil for 2xx responses and *TransportFailure with
// the (truncated) body text as the message otherwise.
func CheckStatus(res *http.Response) error {
	if isSuccess(res.StatusCode) {
		return nil
	}
	failure := newTransportFailure(res)
	if res.Body != nil {
		buf, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		if err == nil {
			failure.Message = strings.TrimSpace(string(buf))
		}
	}
	return failure
}

func newTransportFailure(res *http.Response) *TransportFailure {
	return &TransportFailure{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Header:     res.Header,
		Request:    res.Request,
	}
}

// Handle all 2xx responses as success.
func isSuccess(code int) bool {
	return 200 <= code && code < 300
}
