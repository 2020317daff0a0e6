package httpcontract

import (
	"errors"
	"math"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/schema"
	"github.com/stretchr/testify/require"
)

type filter struct {
	Name   string  `schema:"name"`
	Active bool    `schema:"active"`
	Limit  int     `schema:"limit,omitempty"`
	Score  float64 `schema:"score"`
}

type window struct {
	Offset int        `schema:"offset"`
	Since  time.Time  `schema:"since"`
	Until  *time.Time `schema:"until"`
	Limit  *int       `schema:"limit"`
	Ok     bool       `schema:"ok"`
	Skip   string     `schema:"-"`
	hidden int
}

type span struct {
	From int `schema:"from"`
	To   int `schema:"to,omitempty"`
}

type owner struct {
	Name  string   `schema:"name"`
	Tags  []string `schema:"tag,omitempty"`
	Inner *span
	Extra interface{} `schema:"extra"`
}

type color int

func (c color) MarshalText() ([]byte, error) {
	return []byte([]string{"red", "green"}[c]), nil
}

type brokenMarshaler struct{}

func (brokenMarshaler) MarshalText() ([]byte, error) {
	return nil, errors.New("broken")
}

func TestFormatValue(t *testing.T) {
	i := 42
	var nilPtr *int

	cases := []struct {
		value interface{}
		want  string
	}{
		{nil, ""},
		{nilPtr, ""},
		{&i, "42"},
		{5, "5"},
		{-17, "-17"},
		{int64(math.MaxInt64), "9223372036854775807"},
		{uint8(200), "200"},
		{uint64(math.MaxUint64), "18446744073709551615"},
		{"a b", "a b"},
		{"", ""},
		{true, "True"},
		{false, "False"},
		{float32(5.4), "5.4"},
		{float32(5.8), "5.8"},
		{5.4, "5.4"},
		{0.1, "0.1"},
		{1.0, "1"},
		{0.0, "0"},
		{-2.5, "-2.5"},
		{123456789.0, "123456789"},
		{1e20, "1E+20"},
		{1.5e-7, "1.5E-07"},
		{float32(1e-6), "1E-06"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{[]byte("raw"), "raw"},
		{color(1), "green"},
		{net.IPv4(10, 0, 0, 1), "10.0.0.1"},
		{time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC), "2021-06-01T12:30:00Z"},
		{brokenMarshaler{}, "{}"},
		{struct{ A int }{3}, "{3}"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FormatValue(tc.value), "value %#v", tc.value)
	}
}

func TestComposeURI(t *testing.T) {
	one, two := 1, 2

	cases := []struct {
		name     string
		template string
		params   []UriParameter
		want     string
	}{
		{
			name:     "empty",
			template: "",
			want:     "",
		},
		{
			name:     "leading slash stripped once",
			template: "/users",
			want:     "users",
		},
		{
			name:     "no leading slash",
			template: "users",
			want:     "users",
		},
		{
			name:     "double slash",
			template: "//users",
			want:     "/users",
		},
		{
			name:     "route param",
			template: "/users/{id}",
			params:   []UriParameter{{Name: "id", Value: 5}},
			want:     "users/5",
		},
		{
			name:     "repeated route param",
			template: "/a/{id}/b/{id}",
			params:   []UriParameter{{Name: "id", Value: "x"}},
			want:     "a/x/b/x",
		},
		{
			name:     "nil route param",
			template: "/paramUri/{param}",
			params:   []UriParameter{{Name: "param", Value: nil}},
			want:     "paramUri/",
		},
		{
			name:     "route param is escaped",
			template: "/files/{path}",
			params:   []UriParameter{{Name: "path", Value: "dir/a b?.txt"}},
			want:     "files/dir%2Fa+b%3F.txt",
		},
		{
			name:     "collection in route",
			template: "/users/{ids}",
			params:   []UriParameter{{Name: "ids", Value: []int{1, 2, 3}}},
			want:     "users/1%2C2%2C3",
		},
		{
			name:     "route and query",
			template: "/users/{id}/posts",
			params: []UriParameter{
				{Name: "limit", Value: 10},
				{Name: "id", Value: 5},
				{Name: "q", Value: "a&b=c"},
			},
			want: "users/5/posts?limit=10&q=a%26b%3Dc",
		},
		{
			name:     "collection with nil element",
			template: "/query",
			params: []UriParameter{
				{Name: "a", Value: []*int{&one, nil, &two}},
			},
			want: "query?a=1&a=&a=2",
		},
		{
			name:     "array",
			template: "/query",
			params: []UriParameter{
				{Name: "a", Value: [2]string{"x", "y"}},
			},
			want: "query?a=x&a=y",
		},
		{
			name:     "interface collection",
			template: "/query",
			params: []UriParameter{
				{Name: "a", Value: []interface{}{1, "s", true, nil}},
			},
			want: "query?a=1&a=s&a=True&a=",
		},
		{
			name:     "empty collection",
			template: "/query",
			params: []UriParameter{
				{Name: "a", Value: []int{}},
			},
			want: "query",
		},
		{
			name:     "nil collection",
			template: "/query",
			params: []UriParameter{
				{Name: "a", Value: []int(nil)},
				{Name: "b", Value: 1},
			},
			want: "query?a=&b=1",
		},
		{
			name:     "bytes are not a collection",
			template: "/query",
			params: []UriParameter{
				{Name: "b", Value: []byte("xyz")},
			},
			want: "query?b=xyz",
		},
		{
			name:     "escaped name",
			template: "/query",
			params: []UriParameter{
				{Name: "a b", Value: 1},
			},
			want: "query?a+b=1",
		},
		{
			name:     "struct is flattened",
			template: "/search",
			params: []UriParameter{
				{Name: "f", Value: filter{Name: "x y", Active: true, Score: 0.5}},
				{Name: "page", Value: 2},
			},
			want: "search?active=True&name=x+y&score=0.5&page=2",
		},
		{
			name:     "struct pointer is flattened",
			template: "/search",
			params: []UriParameter{
				{Name: "f", Value: &filter{Name: "n", Limit: 3}},
			},
			want: "search?active=False&limit=3&name=n&score=0",
		},
		{
			name:     "nil struct pointer",
			template: "/search",
			params: []UriParameter{
				{Name: "f", Value: (*filter)(nil)},
			},
			want: "search?f=",
		},
		{
			name:     "text marshaler struct is not flattened",
			template: "/events",
			params: []UriParameter{
				{Name: "since", Value: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
			want: "events?since=2021-06-01T00%3A00%3A00Z",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComposeURI(nil, tc.template, tc.params, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

type prefixedBuilder struct {
	query string
	err   error
	tags  []string
	names []string
}

func (b *prefixedBuilder) BuildQueryString(params []UriParameter, tags []string) (string, error) {
	b.tags = tags
	for _, p := range params {
		b.names = append(b.names, p.Name)
	}
	return b.query, b.err
}

func TestComposeURICustomBuilder(t *testing.T) {
	params := []UriParameter{
		{Name: "a", Value: 1},
		{Name: "id", Value: 2},
		{Name: "b", Value: 3},
	}

	b := &prefixedBuilder{query: "?custom"}
	got, err := ComposeURI([]string{"t1", "t2"}, "/x/{id}", params, b)
	require.NoError(t, err)
	require.Equal(t, "x/2?custom", got)
	require.Equal(t, []string{"t1", "t2"}, b.tags)
	require.Equal(t, []string{"a", "b"}, b.names)

	b = &prefixedBuilder{query: "custom"}
	got, err = ComposeURI(nil, "/x", nil, b)
	require.NoError(t, err)
	require.Equal(t, "x?custom", got)

	b = &prefixedBuilder{}
	got, err = ComposeURI(nil, "/x", params, b)
	require.NoError(t, err)
	require.Equal(t, "x", got)

	wantErr := errors.New("no query for you")
	b = &prefixedBuilder{err: wantErr}
	_, err = ComposeURI(nil, "/x", params, b)
	require.ErrorIs(t, err, wantErr)
}

func TestBuildQueryString(t *testing.T) {
	got, err := BuildQueryString([]UriParameter{
		{Name: "i", Value: 5},
		{Name: "s", Value: "a"},
		{Name: "b", Value: true},
		{Name: "f", Value: float32(5.4)},
		{Name: "n", Value: nil},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "i=5&s=a&b=True&f=5.4&n=", got)

	got, err = BuildQueryString(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestBuildQueryStringStructs(t *testing.T) {
	since := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	limit := 7

	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{
			name:  "text marshaler and nil pointer fields",
			value: window{Offset: 1, Since: since, Ok: true, Skip: "x", hidden: 3},
			want:  "limit=&offset=1&ok=True&since=2021-06-01T00%3A00%3A00Z&until=",
		},
		{
			name:  "pointer fields are dereferenced",
			value: &window{Until: &since, Limit: &limit},
			want:  "limit=7&offset=0&ok=False&since=0001-01-01T00%3A00%3A00Z&until=2021-06-01T00%3A00%3A00Z",
		},
		{
			name:  "nested struct pointer is flattened",
			value: owner{Name: "n", Tags: []string{"a", "b"}, Inner: &span{From: 2}},
			want:  "extra=&from=2&name=n&tag=a&tag=b",
		},
		{
			name:  "nil nested struct pointer",
			value: owner{Name: "n", Extra: 5},
			want:  "Inner=&extra=5&name=n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildQueryString([]UriParameter{{Name: "p", Value: tc.value}}, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildQueryStringConflicts(t *testing.T) {
	cases := []struct {
		name   string
		params []UriParameter
		key    string
	}{
		{
			name: "two structs",
			params: []UriParameter{
				{Name: "a", Value: filter{}},
				{Name: "b", Value: filter{}},
			},
			key: "active",
		},
		{
			name: "struct and parameter",
			params: []UriParameter{
				{Name: "name", Value: "x"},
				{Name: "f", Value: filter{}},
			},
			key: "name",
		},
		{
			name: "parameter after struct",
			params: []UriParameter{
				{Name: "f", Value: filter{}},
				{Name: "name", Value: nil},
			},
			key: "name",
		},
		{
			name: "nested field",
			params: []UriParameter{
				{Name: "o", Value: struct {
					Name  string `schema:"name"`
					Inner filter
				}{}},
			},
			key: "name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildQueryString(tc.params, nil)
			var failure *SerializationFailure
			require.ErrorAs(t, err, &failure)
			require.Equal(t, "encode", failure.Op)
			require.Contains(t, err.Error(), `query key "`+tc.key+`"`)
		})
	}
}

func TestFlattenedStructDecodes(t *testing.T) {
	want := filter{Name: "x y", Active: true, Limit: 3, Score: 0.25}
	query, err := BuildQueryString([]UriParameter{{Name: "f", Value: want}}, nil)
	require.NoError(t, err)

	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	var got filter
	require.NoError(t, schema.NewDecoder().Decode(&got, values))
	require.Equal(t, want, got)
}
