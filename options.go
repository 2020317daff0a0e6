package httpcontract

import (
	"log"

	"github.com/go-kit/kit/endpoint"
)

// DefaultMaxBody is the default limit of a response body.
const DefaultMaxBody = 10 * 1024 * 1024

type Config struct {
	errorf        func(format string, args ...interface{})
	client        Transport
	authorization string
	maxBody       int64
	middlewares   []endpoint.Middleware
}

func NewDefaultConfig() *Config {
	return &Config{
		errorf:  log.Printf,
		maxBody: DefaultMaxBody,
	}
}

type Option func(*Config)

// ErrorLogger sets the function used to report errors which can not be
// returned from a call, e.g. failures to close a response body.
func ErrorLogger(logger func(format string, args ...interface{})) Option {
	return func(config *Config) {
		config.errorf = logger
	}
}

// CustomClient replaces the default HTTP client.
func CustomClient(client Transport) Option {
	return func(config *Config) {
		config.client = client
	}
}

// Authorization sets header Authorization of all requests which do not
// have it yet.
func Authorization(authorization string) Option {
	return func(config *Config) {
		config.authorization = authorization
	}
}

// MaxBody limits the size of response bodies. Reads beyond the limit fail.
func MaxBody(maxBody int64) Option {
	return func(config *Config) {
		config.maxBody = maxBody
	}
}

// Middleware wraps sending of requests. The first middleware is the
// outermost. The request passed to endpoints is *http.Request, the
// response is *http.Response.
func Middleware(middlewares ...endpoint.Middleware) Option {
	return func(config *Config) {
		config.middlewares = append(config.middlewares, middlewares...)
	}
}
