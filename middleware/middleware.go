// Package middleware provides send-stage middlewares for httpcontract
// clients. Install them with httpcontract.Middleware.
//
// Middlewares get *http.Request as the request and *http.Response as the
// response. The contract and method being called are available with
// httpcontract.CallInfoFromContext.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	kitot "github.com/go-kit/kit/tracing/opentracing"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/starius/httpcontract"
)

// RequestIDHeader is set by RequestID.
const RequestIDHeader = "X-Request-Id"

// methodName is "Contract.Method" of the current call.
func methodName(ctx context.Context) string {
	info, ok := httpcontract.CallInfoFromContext(ctx)
	if !ok {
		return "unknown"
	}
	return info.Contract + "." + info.Method
}

func err2str(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Logging logs every request with its outcome and duration.
func Logging(l log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				keyvals := []interface{}{"method", methodName(ctx)}
				if req, ok := request.(*http.Request); ok {
					keyvals = append(keyvals, "verb", req.Method, "url", req.URL.String())
				}
				if res, ok := response.(*http.Response); ok && res != nil {
					keyvals = append(keyvals, "status", res.StatusCode)
				}
				keyvals = append(keyvals, "error", err2str(err), "took", time.Since(begin))
				_ = l.Log(keyvals...)
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// Duration observes request durations in seconds, labeled by "method"
// and "success". A request is successful if it got a 2xx response.
func Duration(d metrics.Histogram) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				success := err == nil
				if res, ok := response.(*http.Response); ok && res != nil {
					success = success && 200 <= res.StatusCode && res.StatusCode < 300
				}
				d.With("method", methodName(ctx), "success", fmt.Sprint(success)).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// Trace starts a client span named "Contract.Method" for each request
// and injects it into request headers.
func Trace(tracer opentracing.Tracer, logger log.Logger) endpoint.Middleware {
	inject := kitot.ContextToHTTP(tracer, logger)
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		injecting := func(ctx context.Context, request interface{}) (interface{}, error) {
			if req, ok := request.(*http.Request); ok {
				ctx = inject(ctx, req)
			}
			return next(ctx, request)
		}
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			return kitot.TraceClient(tracer, methodName(ctx))(injecting)(ctx, request)
		}
	}
}

// RequestID sets a random X-Request-Id header unless the request has one.
func RequestID() endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			if req, ok := request.(*http.Request); ok && req.Header.Get(RequestIDHeader) == "" {
				req.Header.Set(RequestIDHeader, uuid.NewString())
			}
			return next(ctx, request)
		}
	}
}
