package httpcontract

import (
	"encoding"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// UriParameter is a named argument of a call which goes to the route
// or to the query string.
type UriParameter struct {
	Name  string
	Value interface{}
}

// QueryStringBuilder can be implemented by an adapter to build query
// strings of some endpoints differently. BaseAdapter implements it with
// BuildQueryString.
type QueryStringBuilder interface {
	BuildQueryString(params []UriParameter, tags []string) (string, error)
}

type defaultQueryStringBuilder struct{}

func (defaultQueryStringBuilder) BuildQueryString(params []UriParameter, tags []string) (string, error) {
	return BuildQueryString(params, tags)
}

// ComposeURI renders a route template and parameters into path and query.
//
// A leading slash of the template is dropped. Parameters whose {name}
// is found in the template are substituted into it, the rest are passed
// to builder in declaration order. If builder is nil, BuildQueryString
// is used.
func ComposeURI(tags []string, routeTemplate string, params []UriParameter, builder QueryStringBuilder) (string, error) {
	uri := strings.TrimPrefix(routeTemplate, "/")

	query := make([]UriParameter, 0, len(params))
	for _, p := range params {
		placeholder := "{" + p.Name + "}"
		if !strings.Contains(uri, placeholder) {
			query = append(query, p)
			continue
		}
		uri = strings.ReplaceAll(uri, placeholder, url.QueryEscape(formatRouteValue(p.Value)))
	}

	if builder == nil {
		builder = defaultQueryStringBuilder{}
	}
	queryString, err := builder.BuildQueryString(query, tags)
	if err != nil {
		return "", err
	}
	if queryString != "" {
		if !strings.HasPrefix(queryString, "?") {
			queryString = "?" + queryString
		}
		uri += queryString
	}

	return uri, nil
}

// BuildQueryString is the default query encoding.
//
// A slice or array produces one entry per element (nil element gives an
// empty value, empty collection gives nothing, nil slice gives one empty
// value). A struct which is not an encoding.TextMarshaler is flattened
// into its exported fields, nested structs included. Keys come from
// "schema" tags (field name by default, "-" skips the field, "omitempty"
// skips zero values) without the parameter name, sorted. Field values
// follow the same rules as top-level values. Any other value produces a
// single entry formatted with FormatValue. Names and values are
// query-escaped.
//
// Two parameters or fields producing the same key is an error.
func BuildQueryString(params []UriParameter, tags []string) (string, error) {
	q := &queryWriter{owners: make(map[string]string)}
	for _, p := range params {
		if err := q.appendParam(p); err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(q.b.String(), "&"), nil
}

// queryWriter remembers which parameter or struct field owns each key.
type queryWriter struct {
	b      strings.Builder
	owners map[string]string
}

func (q *queryWriter) claim(key, owner string) error {
	if prev, has := q.owners[key]; has && prev != owner {
		return fmt.Errorf("query key %q is set by both %s and %s", key, prev, owner)
	}
	q.owners[key] = owner
	return nil
}

func (q *queryWriter) appendParam(p UriParameter) error {
	value := reflect.ValueOf(p.Value)
	v, present := indirect(value)
	if !present || !isFlattenable(v) {
		if err := q.claim(p.Name, p.Name); err != nil {
			return &SerializationFailure{Op: "encode", Type: reflect.TypeOf(p.Value), Err: err}
		}
		for _, s := range formatEntries(value) {
			writeQueryEntry(&q.b, p.Name, s)
		}
		return nil
	}

	values := make(url.Values)
	owners := make(map[string]string)
	if err := flatten(v, p.Name, values, owners); err != nil {
		return &SerializationFailure{Op: "encode", Type: v.Type(), Err: err}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := q.claim(key, owners[key]); err != nil {
			return &SerializationFailure{Op: "encode", Type: v.Type(), Err: err}
		}
		for _, s := range values[key] {
			writeQueryEntry(&q.b, key, s)
		}
	}
	return nil
}

// flatten puts fields of struct v to values. path names v in errors.
func flatten(v reflect.Value, path string, values url.Values, owners map[string]string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitempty := schemaAlias(field)
		if name == "-" {
			continue
		}
		fv := v.Field(i)
		if omitempty && isEmptyValue(fv) {
			continue
		}
		fieldPath := path + "." + field.Name
		if inner, present := indirect(fv); present && isFlattenable(inner) {
			if err := flatten(inner, fieldPath, values, owners); err != nil {
				return err
			}
			continue
		}
		if owner, has := owners[name]; has && owner != fieldPath {
			return fmt.Errorf("query key %q is set by both %s and %s", name, owner, fieldPath)
		}
		owners[name] = fieldPath
		values[name] = append(values[name], formatEntries(fv)...)
	}
	return nil
}

// schemaAlias parses `schema:"name,omitempty"` the way gorilla/schema does.
func schemaAlias(field reflect.StructField) (name string, omitempty bool) {
	parts := strings.Split(field.Tag.Get(schemaTag), ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, option := range parts[1:] {
		if option == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

const schemaTag = "schema"

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return v.IsZero()
}

// formatEntries returns values of one query key.
func formatEntries(value reflect.Value) []string {
	v, present := indirect(value)
	switch {
	case present && v.Kind() == reflect.Slice && v.IsNil():
		// nil slice is an absent value, not an empty collection.
		return []string{""}
	case present && isCollection(v):
		entries := make([]string, v.Len())
		for i := range entries {
			entries[i] = FormatValue(v.Index(i).Interface())
		}
		return entries
	case !value.IsValid():
		return []string{""}
	}
	return []string{FormatValue(value.Interface())}
}

func writeQueryEntry(b *strings.Builder, name, value string) {
	b.WriteString(url.QueryEscape(name))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
	b.WriteByte('&')
}

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// indirect dereferences pointers and interfaces. present is false for
// nil values.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return v, false
		}
		if v.Kind() == reflect.Ptr && v.Type().Implements(textMarshalerType) && !v.Elem().Type().Implements(textMarshalerType) {
			// MarshalText has a pointer receiver.
			return v, true
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func isCollection(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

func isFlattenable(v reflect.Value) bool {
	return v.Kind() == reflect.Struct && !v.Type().Implements(textMarshalerType) &&
		!reflect.PtrTo(v.Type()).Implements(textMarshalerType)
}

// formatRouteValue is FormatValue plus joining of collections with ",".
func formatRouteValue(value interface{}) string {
	v, present := indirect(reflect.ValueOf(value))
	if !present || !isCollection(v) {
		return FormatValue(value)
	}
	items := make([]string, v.Len())
	for i := range items {
		items[i] = FormatValue(v.Index(i).Interface())
	}
	return strings.Join(items, ",")
}

// FormatValue converts a parameter value to the string sent in URI.
//
// nil is "", booleans are "True" and "False", numbers are decimal (floats
// in the shortest form which parses back to the same value), strings are
// kept as is, encoding.TextMarshaler is used if implemented, anything
// else goes through fmt.Sprintf("%v").
func FormatValue(value interface{}) string {
	v, present := indirect(reflect.ValueOf(value))
	if !present {
		return ""
	}
	if v.CanInterface() {
		if marshaler, ok := v.Interface().(encoding.TextMarshaler); ok {
			text, err := marshaler.MarshalText()
			if err == nil {
				return string(text)
			}
		}
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "True"
		}
		return "False"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return formatFloat(v.Float(), 32)
	case reflect.Float64:
		return formatFloat(v.Float(), 64)
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
	}
	return fmt.Sprintf("%v", v.Interface())
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-5 || abs >= 1e15) {
		return strconv.FormatFloat(f, 'E', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
