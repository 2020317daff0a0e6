package httpcontract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starius/httpcontract/internal/shared"
)

const (
	jsonContentType = "application/json; charset=utf-8"
	jsonAccept      = "application/json"
)

// JSONAdapter sends bodies and receives results as JSON.
//
// Error responses in the form {"error": "...", "code": "..."} are
// recognized and their message is used in *TransportFailure.
//
// To redefine some methods, set corresponding fields in the struct:
//
//	&JSONAdapter{RequestEncoder: func ...
type JSONAdapter struct {
	BaseAdapter

	// Validator, if set, validates struct bodies before sending and
	// struct results after decoding.
	Validator *validator.Validate

	RequestEncoder  func(ctx context.Context, verb, uri string, body interface{}, tags []string) (*http.Request, error)
	ResponseDecoder func(ctx context.Context, res *http.Response, result interface{}, tags []string) error
	ErrorDecoder    func(ctx context.Context, res *http.Response, tags []string) error
}

func (a *JSONAdapter) BuildRequest(ctx context.Context, verb, uri string, body interface{}, tags []string) (*http.Request, error) {
	if a.RequestEncoder != nil {
		return a.RequestEncoder(ctx, verb, uri, body, tags)
	}

	request, err := http.NewRequestWithContext(ctx, verb, uri, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", jsonAccept)

	if body == nil {
		return request, nil
	}
	if err := a.validate(body); err != nil {
		return nil, err
	}
	requestJSON, err := json.Marshal(body)
	if err != nil {
		return nil, &SerializationFailure{Op: "encode", Type: reflect.TypeOf(body), Err: err}
	}
	setBody(request, requestJSON)
	request.Header.Set("Content-Type", jsonContentType)

	return request, nil
}

// setBody attaches buf as a body which can be re-read on redirects.
func setBody(request *http.Request, buf []byte) {
	body := bytes.NewReader(buf)
	snapshot := *body
	request.ContentLength = int64(len(buf))
	request.Body = io.NopCloser(body)
	request.GetBody = func() (io.ReadCloser, error) {
		r := snapshot
		return io.NopCloser(&r), nil
	}
}

func (a *JSONAdapter) ProcessResponse(ctx context.Context, res *http.Response, tags []string) error {
	if isSuccess(res.StatusCode) {
		return nil
	}
	if a.ErrorDecoder != nil {
		return a.ErrorDecoder(ctx, res, tags)
	}
	return decodeJSONError(res)
}

func (a *JSONAdapter) DecodeResponse(ctx context.Context, res *http.Response, result interface{}, tags []string) error {
	if err := a.ProcessResponse(ctx, res, tags); err != nil {
		return err
	}
	if a.ResponseDecoder != nil {
		return a.ResponseDecoder(ctx, res, result, tags)
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(buf, result); err != nil {
		return &SerializationFailure{Op: "decode", Type: reflect.TypeOf(result).Elem(), Err: err}
	}
	return a.validate(result)
}

func (a *JSONAdapter) validate(value interface{}) error {
	if a.Validator == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if err := a.Validator.Struct(v.Interface()); err != nil {
		return &SerializationFailure{Op: "validate", Type: v.Type(), Err: err}
	}
	return nil
}

// decodeJSONError reads the error envelope. If the body is not
// an envelope, its text becomes the message.
func decodeJSONError(res *http.Response) error {
	failure := newTransportFailure(res)
	if res.Body == nil {
		return failure
	}
	buf, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil {
		return failure
	}
	var msg shared.ErrorMessage
	if err := json.Unmarshal(buf, &msg); err == nil && msg.Error != "" {
		failure.Message = msg.Error
		failure.Code = msg.Code
		return failure
	}
	failure.Message = strings.TrimSpace(string(buf))
	return failure
}
