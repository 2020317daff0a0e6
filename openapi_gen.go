package httpcontract

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	spec "github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

var standardVerbs = map[string]bool{
	http.MethodConnect: true,
	http.MethodDelete:  true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodTrace:   true,
}

// GenerateOpenAPI describes the contract as OpenAPI 3 document.
//
// Methods violating the contract rules and methods with non-standard
// verbs are skipped. Bodies and results are described as JSON.
func GenerateOpenAPI(contractPtr interface{}, title, version string) (*spec.T, error) {
	value, err := contractValue(contractPtr)
	if err != nil {
		return nil, err
	}
	c := loadContract(value.Type())

	swagger := &spec.T{
		OpenAPI: "3.0.3",
		Info: &spec.Info{
			Title:   title,
			Version: version,
		},
		Paths: spec.Paths{},
	}

	for _, m := range c.methods {
		if m.violation != nil || !standardVerbs[m.endpoint.Verb] {
			continue
		}
		op, err := genOperation(c, m)
		if err != nil {
			return nil, &ContractViolation{Contract: c.name, Method: m.name, Err: err}
		}
		path := "/" + strings.TrimPrefix(m.endpoint.RouteTemplate, "/")
		p := swagger.Paths.Find(path)
		if p == nil {
			p = &spec.PathItem{}
			swagger.Paths[path] = p
		}
		p.SetOperation(m.endpoint.Verb, op)
	}

	return swagger, nil
}

func genOperation(c *contract, m *method) (*spec.Operation, error) {
	op := spec.NewOperation()
	op.OperationID = c.name + "." + m.name
	op.Tags = m.endpoint.Tags
	if len(op.Tags) == 0 {
		op.Tags = []string{c.name}
	}

	for _, p := range m.params {
		schema, err := schemaFor(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		switch {
		case p.Kind == ParamBody:
			op.RequestBody = &spec.RequestBodyRef{
				Value: spec.NewRequestBody().WithRequired(true).WithContent(spec.NewContentWithSchemaRef(schema, []string{jsonAccept})),
			}
		case strings.Contains(m.endpoint.RouteTemplate, "{"+p.Name+"}"):
			param := spec.NewPathParameter(p.Name)
			param.Schema = schema
			op.AddParameter(param)
		default:
			param := spec.NewQueryParameter(p.Name)
			param.Schema = schema
			op.AddParameter(param)
		}
	}

	resp := spec.NewResponse().WithDescription("success")
	if m.shape == shapeValue {
		schema, err := schemaFor(m.result)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		resp.Content = spec.NewContentWithSchemaRef(schema, []string{jsonAccept})
	}
	op.AddResponse(http.StatusOK, resp)

	return op, nil
}

func schemaFor(t reflect.Type) (*spec.SchemaRef, error) {
	if t.Kind() == reflect.Interface {
		return spec.NewSchemaRef("", spec.NewSchema()), nil
	}
	return openapi3gen.NewSchemaRefForValue(reflect.Zero(t).Interface(), spec.Schemas{})
}
