// Package debugclient logs requests as curl commands and full responses.
package debugclient

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"sync/atomic"

	"github.com/go-kit/kit/log"
	"moul.io/http2curl"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

type DebugClient struct {
	impl   HttpClient
	logger log.Logger
	n      uint64
}

func New(impl HttpClient, logger log.Logger) (*DebugClient, error) {
	if impl == nil {
		return nil, fmt.Errorf("debugclient: nil client")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &DebugClient{
		impl:   impl,
		logger: logger,
	}, nil
}

func (c *DebugClient) Do(req *http.Request) (*http.Response, error) {
	n := atomic.AddUint64(&c.n, 1)

	curl, err := http2curl.GetCurlCommand(req)
	if err != nil {
		return nil, fmt.Errorf("http2curl.GetCurlCommand failed for %d: %w", n, err)
	}
	if err := c.logger.Log("event", "client_request", "n", n, "curl", curl.String()); err != nil {
		return nil, fmt.Errorf("logging of request %d failed: %w", n, err)
	}

	res, err := c.impl.Do(req)
	if err != nil {
		_ = c.logger.Log("event", "client_error", "n", n, "err", err)
		return nil, err
	}

	resDump, err := httputil.DumpResponse(res, true)
	if err != nil {
		res.Body.Close()
		return nil, fmt.Errorf("httputil.DumpResponse failed for %d: %w", n, err)
	}
	if err := c.logger.Log("event", "server_response", "n", n, "response", string(resDump)); err != nil {
		return nil, fmt.Errorf("logging of response %d failed: %w", n, err)
	}

	return res, nil
}

func (c *DebugClient) CloseIdleConnections() {
	c.impl.CloseIdleConnections()
}
