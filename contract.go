package httpcontract

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	lru "github.com/hashicorp/golang-lru"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type resultShape int

const (
	shapeUnsupported resultShape = iota
	shapeNoValue                 // func(ctx, ...) error
	shapeValue                   // func(ctx, ...) (T, error)
)

// method is a resolved contract method. It is immutable and shared
// between all clients of the contract type.
type method struct {
	name     string
	index    []int
	fnType   reflect.Type
	endpoint *Endpoint
	params   []Param
	shape    resultShape
	result   reflect.Type

	// violation is a *ContractViolation or nil.
	violation error
}

type contract struct {
	typ      reflect.Type
	name     string
	fullName string
	methods  []*method
}

// Parsed contracts by reflect.Type. Descriptors never change,
// so a contract type is parsed once per process (until evicted).
var contracts = newContractCache(256)

func newContractCache(size int) *lru.Cache {
	c, err := lru.New(size)
	if err != nil {
		panic(fmt.Sprintf("lru.New(%d): %v", size, err))
	}
	return c
}

func loadContract(t reflect.Type) *contract {
	if c, has := contracts.Get(t); has {
		return c.(*contract)
	}
	c := parseContract(t)
	contracts.Add(t, c)
	return c
}

func fullTypeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// contractValue returns the struct behind contractPtr.
func contractValue(contractPtr interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(contractPtr)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, &ContractViolation{Err: ErrInvalidContract}
	}
	return v.Elem(), nil
}

func parseContract(t reflect.Type) *contract {
	c := &contract{
		typ:      t,
		name:     t.Name(),
		fullName: fullTypeName(t),
	}
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		m := &method{
			name:   field.Name,
			index:  field.Index,
			fnType: field.Type,
		}
		m.shape, m.result = resolveShape(field.Type)
		if err := m.resolve(field.Tag); err != nil {
			m.violation = &ContractViolation{
				Contract: c.name,
				Method:   m.name,
				Err:      err,
			}
		}
		c.methods = append(c.methods, m)
	}
	return c
}

func resolveShape(fnType reflect.Type) (resultShape, reflect.Type) {
	switch {
	case fnType.NumOut() == 1 && fnType.Out(0) == errorType:
		return shapeNoValue, nil
	case fnType.NumOut() == 2 && fnType.Out(1) == errorType:
		return shapeValue, fnType.Out(0)
	default:
		return shapeUnsupported, nil
	}
}

// resolve fills endpoint and params and returns the first violation.
func (m *method) resolve(tag reflect.StructTag) error {
	endpoint, err := parseEndpoint(tag)
	if err != nil {
		return err
	}
	if endpoint == nil {
		return ErrMissingDescriptor
	}
	m.endpoint = endpoint

	params, err := parseParams(tag)
	if err != nil {
		return err
	}
	m.params = params

	bodies := 0
	for _, p := range params {
		if p.Kind == ParamOut {
			return fmt.Errorf("%w: %q is an %s parameter", ErrOutputParameter, p.Name, p.Kind)
		}
		if p.Kind == ParamBody {
			bodies++
		}
	}
	if bodies > 1 {
		return fmt.Errorf("%w: %d %s parameters", ErrMultipleBodies, bodies, ParamBody)
	}

	if m.shape == shapeUnsupported {
		return ErrUnsupportedShape
	}

	fnType := m.fnType
	if fnType.NumIn() == 0 || fnType.In(0) != contextType {
		return ErrMissingContext
	}
	if fnType.IsVariadic() {
		return ErrVariadic
	}

	if len(params) != fnType.NumIn()-1 {
		return fmt.Errorf("%w: %d names for %d arguments", ErrParameterNames, len(params), fnType.NumIn()-1)
	}
	seen := make(map[string]struct{}, len(params))
	for i := range params {
		name := params[i].Name
		if name == "" {
			return fmt.Errorf("%w: argument %d has no name", ErrParameterNames, i+1)
		}
		if _, has := seen[name]; has {
			return fmt.Errorf("%w: duplicate name %q", ErrParameterNames, name)
		}
		seen[name] = struct{}{}
		params[i].Type = fnType.In(i + 1)
	}

	return nil
}

// ValidateContract checks all methods of the contract and returns
// all violations joined. Clients report the same violations per call.
func ValidateContract(contractPtr interface{}) error {
	v, err := contractValue(contractPtr)
	if err != nil {
		return err
	}
	c := loadContract(v.Type())
	var errs []error
	for _, m := range c.methods {
		if m.violation != nil {
			errs = append(errs, m.violation)
		}
	}
	return errors.Join(errs...)
}
