package httpcontract

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/starius/httpcontract/closingclient"
)

// Client implements a contract by sending HTTP requests.
type Client struct {
	contract      *contract
	baseURL       string
	adapter       Adapter
	queryBuilder  QueryStringBuilder
	client        *closingclient.ClosingClient
	send          endpoint.Endpoint
	errorf        func(format string, args ...interface{})
	authorization string
	maxBody       int64
}

// CallInfo describes the call being made. Middlewares get it from
// the context with CallInfoFromContext.
type CallInfo struct {
	// Contract is the name of the contract type.
	Contract string

	// Method is the name of the field of the contract.
	Method string

	Verb  string
	Route string
	Tags  []string
}

type callInfoKey struct{}

// CallInfoFromContext returns CallInfo of the current call.
func CallInfoFromContext(ctx context.Context) (*CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(*CallInfo)
	return info, ok
}

// NewClient fills function fields of the contract with implementations
// sending requests to baseURL.
//
// contractPtr is a pointer to a struct. Each exported field of function
// type is a remote method and must be tagged:
//
//	Get func(ctx context.Context, id int) (*User, error) `endpoint:"GET /users/{id}" params:"id"`
//
// Methods which violate the rules are still filled, but their calls
// fail with *ContractViolation without sending anything. Use
// ValidateContract to check a contract in advance.
//
// If adapter is nil, JSONAdapter is used.
func NewClient(contractPtr interface{}, baseURL string, adapter Adapter, opts ...Option) (*Client, error) {
	value, err := contractValue(contractPtr)
	if err != nil {
		return nil, err
	}
	if adapter == nil {
		adapter = &JSONAdapter{}
	}

	config := NewDefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	var client Transport
	if config.client != nil {
		client = config.client
	} else {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	cc, err := closingclient.New(client)
	if err != nil {
		return nil, err
	}

	queryBuilder, ok := adapter.(QueryStringBuilder)
	if !ok {
		queryBuilder = defaultQueryStringBuilder{}
	}

	c := &Client{
		contract:      loadContract(value.Type()),
		baseURL:       baseURL,
		adapter:       adapter,
		queryBuilder:  queryBuilder,
		client:        cc,
		errorf:        config.errorf,
		authorization: config.authorization,
		maxBody:       config.maxBody,
	}

	c.send = c.sendEndpoint
	if len(config.middlewares) != 0 {
		c.send = endpoint.Chain(config.middlewares[0], config.middlewares[1:]...)(c.send)
	}

	for _, m := range c.contract.methods {
		field, err := value.FieldByIndexErr(m.index)
		if err != nil {
			return nil, &ContractViolation{Contract: c.contract.name, Method: m.name, Err: fmt.Errorf("%w: %v", ErrInvalidContract, err)}
		}
		if !field.CanSet() {
			continue
		}
		field.Set(c.bind(m))
	}

	return c, nil
}

func (c *Client) sendEndpoint(ctx context.Context, request interface{}) (interface{}, error) {
	var tags []string
	if info, ok := CallInfoFromContext(ctx); ok {
		tags = info.Tags
	}
	return c.adapter.Send(ctx, c.client, request.(*http.Request), tags)
}

// bind returns implementation of the method.
func (c *Client) bind(m *method) reflect.Value {
	return reflect.MakeFunc(m.fnType, func(args []reflect.Value) []reflect.Value {
		switch m.shape {
		case shapeNoValue:
			err := c.dispatch(m, args, nil)
			return []reflect.Value{errorValue(err)}

		case shapeValue:
			resultPtr := reflect.New(m.result)
			if err := c.dispatch(m, args, resultPtr.Interface()); err != nil {
				return []reflect.Value{reflect.Zero(m.result), errorValue(err)}
			}
			return []reflect.Value{resultPtr.Elem(), errorValue(nil)}

		default:
			// There is no way to return an error.
			panic(m.violation)
		}
	})
}

func errorValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(&err).Elem()
}

// dispatch performs one call. result is nil for methods without a result.
func (c *Client) dispatch(m *method, args []reflect.Value, result interface{}) error {
	if m.violation != nil {
		return m.violation
	}

	ctx, _ := args[0].Interface().(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	if c.client.IsClosed() {
		return ErrClosed
	}

	var body interface{}
	params := make([]UriParameter, 0, len(m.params))
	for i, p := range m.params {
		value := args[i+1].Interface()
		if p.Kind == ParamBody {
			if !isNil(unwrapInterface(args[i+1])) {
				body = value
			}
			continue
		}
		params = append(params, UriParameter{Name: p.Name, Value: value})
	}

	e := m.endpoint
	// Each call gets its own copy, the descriptor is shared.
	tags := append([]string{}, e.Tags...)
	ctx = context.WithValue(ctx, callInfoKey{}, &CallInfo{
		Contract: c.contract.name,
		Method:   m.name,
		Verb:     e.Verb,
		Route:    e.RouteTemplate,
		Tags:     tags,
	})

	uri, err := ComposeURI(tags, e.RouteTemplate, params, c.queryBuilder)
	if err != nil {
		return fmt.Errorf("failed to compose URI: %w", err)
	}
	url := strings.TrimSuffix(c.baseURL, "/") + "/" + uri

	req, err := c.adapter.BuildRequest(ctx, e.Verb, url, body, tags)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	if c.authorization != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", c.authorization)
	}

	response, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	res, ok := response.(*http.Response)
	if !ok || res == nil {
		return fmt.Errorf("send returned %T, want *http.Response", response)
	}
	if res.Body == nil {
		res.Body = http.NoBody
	}
	res.Body = http.MaxBytesReader(nil, res.Body, c.maxBody)
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.errorf("failed to close resource: %v", err)
		}
	}()

	if result == nil {
		return c.adapter.ProcessResponse(ctx, res, tags)
	}
	return c.adapter.DecodeResponse(ctx, res, result, tags)
}

// unwrapInterface returns the value stored in an interface.
func unwrapInterface(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return !v.IsValid()
}

// Close releases the transport. In-flight calls are canceled,
// later calls fail with ErrClosed. Repeated calls return the result
// of the first one.
func (c *Client) Close() error {
	return c.client.Close()
}
