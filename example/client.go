package example

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/starius/httpcontract"
	"github.com/starius/httpcontract/middleware"
)

// Clients holds both parts of the API.
type Clients struct {
	Echo  *Echo
	Clock *Clock

	registry *httpcontract.Registry
}

// NewClients binds Echo and Clock to baseURL. Every request is logged to
// logger and carries a request ID.
func NewClients(baseURL string, logger log.Logger, configure func(*http.Client)) (*Clients, error) {
	registry := httpcontract.NewRegistry()
	mw := httpcontract.Middleware(
		middleware.Logging(logger),
		middleware.RequestID(),
	)
	if err := httpcontract.Register[Echo, *httpcontract.JSONAdapter](registry, baseURL, configure, mw); err != nil {
		return nil, err
	}
	if err := httpcontract.Register[Clock, *httpcontract.ProtobufAdapter](registry, baseURL, configure, mw); err != nil {
		return nil, err
	}

	echo, err := httpcontract.Resolve[Echo](registry)
	if err != nil {
		registry.Close()
		return nil, err
	}
	clock, err := httpcontract.Resolve[Clock](registry)
	if err != nil {
		registry.Close()
		return nil, err
	}

	return &Clients{
		Echo:     echo,
		Clock:    clock,
		registry: registry,
	}, nil
}

func (c *Clients) Close() error {
	return c.registry.Close()
}
