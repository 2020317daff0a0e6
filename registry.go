package httpcontract

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
)

// Registry keeps contracts bound to adapters and base URLs.
// Each contract gets its own HTTP client, created on first Resolve.
type Registry struct {
	mu       sync.Mutex
	bindings map[string]*binding
	closed   bool
}

type binding struct {
	baseURL    string
	newAdapter func() Adapter
	configure  func(*http.Client)
	opts       []Option

	once     sync.Once
	contract interface{}
	client   *Client
	err      error
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*binding),
	}
}

// Register binds contract type C to adapter type A.
//
// A must be a concrete type: a struct type or a pointer to one (a new
// instance is allocated for the client). Passing an interface type,
// e.g. Adapter itself, fails with ErrAbstractAdapter.
//
// configure is called once for the HTTP client of the contract before
// it is used. Redirects are not followed unless configure changes
// CheckRedirect.
func Register[C any, A Adapter](r *Registry, baseURL string, configure func(*http.Client), opts ...Option) error {
	contractType := reflect.TypeOf((*C)(nil)).Elem()
	if contractType.Kind() != reflect.Struct {
		return &ContractViolation{Contract: contractType.String(), Err: ErrInvalidContract}
	}
	adapterType := reflect.TypeOf((*A)(nil)).Elem()
	if adapterType.Kind() == reflect.Interface {
		return &ContractViolation{
			Contract: contractType.Name(),
			Err:      fmt.Errorf("%w: %s is an interface", ErrAbstractAdapter, adapterType),
		}
	}
	if adapterType.Kind() == reflect.Ptr && adapterType.Elem().Kind() == reflect.Ptr {
		return &ContractViolation{
			Contract: contractType.Name(),
			Err:      fmt.Errorf("%w: %s", ErrAbstractAdapter, adapterType),
		}
	}

	newAdapter := func() Adapter {
		if adapterType.Kind() == reflect.Ptr {
			return reflect.New(adapterType.Elem()).Interface().(Adapter)
		}
		var a A
		return a
	}

	name := fullTypeName(contractType)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, has := r.bindings[name]; has {
		return &ContractViolation{Contract: contractType.Name(), Err: ErrAlreadyRegistered}
	}
	r.bindings[name] = &binding{
		baseURL:    baseURL,
		newAdapter: newAdapter,
		configure:  configure,
		opts:       opts,
	}
	return nil
}

// Resolve returns the implementation of contract C registered in r.
// All calls return the same instance.
func Resolve[C any](r *Registry) (*C, error) {
	contractType := reflect.TypeOf((*C)(nil)).Elem()
	name := fullTypeName(contractType)

	r.mu.Lock()
	b, has := r.bindings[name]
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if !has {
		return nil, &ContractViolation{Contract: contractType.Name(), Err: ErrNotRegistered}
	}

	b.once.Do(func() {
		httpClient := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		if b.configure != nil {
			b.configure(httpClient)
		}
		contract := new(C)
		opts := append([]Option{CustomClient(httpClient)}, b.opts...)
		client, err := NewClient(contract, b.baseURL, b.newAdapter(), opts...)
		if err != nil {
			b.err = err
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			b.err = errors.Join(ErrClosed, client.Close())
			return
		}
		b.contract = contract
		b.client = client
	})
	if b.err != nil {
		return nil, b.err
	}
	return b.contract.(*C), nil
}

// Close closes clients of all resolved contracts.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, b := range r.bindings {
		if b.client != nil {
			errs = append(errs, b.client.Close())
		}
	}
	return errors.Join(errs...)
}
