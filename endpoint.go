package httpcontract

import (
	"fmt"
	"reflect"
	"strings"
)

// Endpoint describes the remote side of one contract method.
type Endpoint struct {
	// Verb is the HTTP method. Any non-empty token is accepted.
	Verb string

	// RouteTemplate is the path, may contain {name} placeholders.
	// A leading slash is optional.
	RouteTemplate string

	// Tags are passed unchanged to every adapter hook, so adapters can
	// treat some endpoints in a special way.
	Tags []string
}

// ParamKind tells how an argument of a contract method is sent.
type ParamKind int

const (
	// ParamNamed arguments are substituted into the route or sent in query.
	ParamNamed ParamKind = iota

	// ParamBody argument is encoded by the adapter as request body.
	ParamBody

	// ParamOut marks an output parameter. Contracts must not have them.
	ParamOut
)

func (k ParamKind) String() string {
	switch k {
	case ParamNamed:
		return "named"
	case ParamBody:
		return "body"
	case ParamOut:
		return "out"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// Param is an argument of a contract method (context excluded).
type Param struct {
	Name string
	Kind ParamKind
	Type reflect.Type
}

// Struct tags of contract fields.
const (
	endpointTag = "endpoint"
	paramsTag   = "params"
	tagsTag     = "tags"
)

// parseEndpoint parses `endpoint:"VERB /route"` and `tags:"a,b"`.
// It returns nil if the field has no endpoint tag.
func parseEndpoint(tag reflect.StructTag) (*Endpoint, error) {
	value, has := tag.Lookup(endpointTag)
	if !has {
		return nil, nil
	}
	verb, route, _ := strings.Cut(strings.TrimSpace(value), " ")
	if verb == "" {
		return nil, fmt.Errorf("%w: empty verb in %q", ErrMalformedDescriptor, value)
	}
	return &Endpoint{
		Verb:          verb,
		RouteTemplate: strings.TrimSpace(route),
		Tags:          splitList(tag.Get(tagsTag)),
	}, nil
}

// parseParams parses `params:"id,payload:body"`.
func parseParams(tag reflect.StructTag) ([]Param, error) {
	items := splitList(tag.Get(paramsTag))
	params := make([]Param, 0, len(items))
	for _, item := range items {
		name, kind, _ := strings.Cut(item, ":")
		p := Param{Name: strings.TrimSpace(name)}
		switch strings.TrimSpace(kind) {
		case "":
			p.Kind = ParamNamed
		case "body":
			p.Kind = ParamBody
		case "out":
			p.Kind = ParamOut
		default:
			return nil, fmt.Errorf("%w: unknown kind %q of parameter %q", ErrMalformedDescriptor, kind, name)
		}
		params = append(params, p)
	}
	return params, nil
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
