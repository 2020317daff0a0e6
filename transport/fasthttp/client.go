// Package fasthttp sends requests of httpcontract clients with fasthttp.
//
//	client, err := httpcontract.NewClient(&contract, baseURL, adapter,
//		httpcontract.CustomClient(fasthttp.New(&fasthttp.Client{})))
package fasthttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/valyala/fasthttp"
)

// Client converts net/http requests to fasthttp and back.
type Client struct {
	client *fasthttp.Client
}

// New wraps client. If client is nil, a default one is used.
func New(client *fasthttp.Client) *Client {
	if client == nil {
		client = &fasthttp.Client{}
	}
	return &Client{client: client}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	freq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(freq)
	fres := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(fres)

	freq.SetRequestURI(req.URL.String())
	freq.Header.SetMethod(req.Method)
	for key, values := range req.Header {
		for i, value := range values {
			if i == 0 {
				freq.Header.Set(key, value)
			} else {
				freq.Header.Add(key, value)
			}
		}
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		freq.SetBody(body)
	}

	var err error
	if deadline, has := ctx.Deadline(); has {
		err = c.client.DoDeadline(freq, fres, deadline)
	} else {
		err = c.client.Do(freq, fres)
	}
	if err != nil {
		return nil, err
	}

	code := fres.StatusCode()
	res := &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Request:    req,
	}
	fres.Header.VisitAll(func(key, value []byte) {
		res.Header.Add(string(key), string(value))
	})
	// fres is released on return.
	body := append([]byte(nil), fres.Body()...)
	res.ContentLength = int64(len(body))
	res.Body = io.NopCloser(bytes.NewReader(body))

	return res, nil
}

// CloseIdleConnections does nothing: fasthttp.Client closes idle
// connections by itself.
func (c *Client) CloseIdleConnections() {
}
