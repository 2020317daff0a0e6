package httpcontract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"google.golang.org/protobuf/proto"
)

const protobufContentType = "application/x-protobuf"

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

// ProtobufAdapter sends bodies and receives results in protobuf binary
// form. Body parameters and results must be protobuf messages, e.g.
//
//	Get func(ctx context.Context, id string) (*pb.Item, error) `endpoint:"GET /items/{id}"`
type ProtobufAdapter struct {
	BaseAdapter
}

func (a *ProtobufAdapter) BuildRequest(ctx context.Context, verb, uri string, body interface{}, tags []string) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, verb, uri, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", protobufContentType)

	if body == nil {
		return request, nil
	}
	message, ok := body.(proto.Message)
	if !ok {
		return nil, &SerializationFailure{Op: "encode", Type: reflect.TypeOf(body), Err: fmt.Errorf("not a proto.Message")}
	}
	buf, err := proto.Marshal(message)
	if err != nil {
		return nil, &SerializationFailure{Op: "encode", Type: reflect.TypeOf(body), Err: err}
	}
	setBody(request, buf)
	request.Header.Set("Content-Type", protobufContentType)

	return request, nil
}

func (a *ProtobufAdapter) DecodeResponse(ctx context.Context, res *http.Response, result interface{}, tags []string) error {
	if err := a.ProcessResponse(ctx, res, tags); err != nil {
		return err
	}

	resultType := reflect.TypeOf(result).Elem()
	var message proto.Message
	switch {
	case resultType.Implements(protoMessageType) && resultType.Kind() == reflect.Ptr:
		// result is **Msg: allocate the message.
		value := reflect.New(resultType.Elem())
		reflect.ValueOf(result).Elem().Set(value)
		message = value.Interface().(proto.Message)
	default:
		m, ok := result.(proto.Message)
		if !ok {
			return &SerializationFailure{Op: "decode", Type: resultType, Err: fmt.Errorf("not a proto.Message")}
		}
		message = m
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if err := proto.Unmarshal(buf, message); err != nil {
		return &SerializationFailure{Op: "decode", Type: resultType, Err: err}
	}
	return nil
}
