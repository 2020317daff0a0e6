package example

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/starius/httpcontract"
	"github.com/starius/httpcontract/middleware"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestEcho(t *testing.T) {
	var mu sync.Mutex
	var requestIDs []string
	var logged []string

	handler := NewHandler(NewEchoService(NewEchoRepository()))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestIDs = append(requestIDs, r.Header.Get(middleware.RequestIDHeader))
		mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	logger := log.LoggerFunc(func(keyvals ...interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		for i := 0; i+1 < len(keyvals); i += 2 {
			if keyvals[i] == "method" {
				logged = append(logged, keyvals[i+1].(string))
			}
		}
		return nil
	})

	clients, err := NewClients(server.URL, logger, nil)
	require.NoError(t, err)
	defer clients.Close()

	ctx := context.Background()

	_, err = clients.Echo.Hello(ctx, "wrong")
	var failure *httpcontract.TransportFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusForbidden, failure.StatusCode)
	require.Equal(t, "bad key", failure.Message)

	session, err := clients.Echo.Hello(ctx, SecretKey)
	require.NoError(t, err)
	require.Len(t, session, 32)

	_, err = clients.Echo.Echo(ctx, "nope", "user", &EchoRequest{Text: "x"})
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusUnauthorized, failure.StatusCode)
	require.Equal(t, "bad session", failure.Message)

	for _, text := range []string{"one", "two", "three"} {
		res, err := clients.Echo.Echo(ctx, session, "good user", &EchoRequest{Text: text})
		require.NoError(t, err)
		require.Equal(t, text, res.Text)
		require.Equal(t, "good user", res.User)
	}

	history, err := clients.Echo.History(ctx, session, Page{})
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three"}, history)

	history, err = clients.Echo.History(ctx, session, Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"two"}, history)

	history, err = clients.Echo.History(ctx, session, Page{Offset: 10})
	require.NoError(t, err)
	require.Empty(t, history)

	require.NoError(t, clients.Echo.Forget(ctx, session))
	err = clients.Echo.Forget(ctx, session)
	require.ErrorAs(t, err, &failure)
	require.Equal(t, http.StatusUnauthorized, failure.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requestIDs, 11)
	seen := make(map[string]bool)
	for _, id := range requestIDs {
		require.NotEmpty(t, id)
		require.False(t, seen[id], id)
		seen[id] = true
	}
	require.Len(t, logged, 11)
	require.Equal(t, "Echo.Hello", logged[0])
	require.Equal(t, "Echo.Forget", logged[10])
}

func TestClock(t *testing.T) {
	server := httptest.NewServer(NewHandler(NewEchoService(NewEchoRepository())))
	defer server.Close()

	clients, err := NewClients(server.URL, log.NewNopLogger(), nil)
	require.NoError(t, err)
	defer clients.Close()

	since, err := clients.Clock.Since(context.Background(), timestamppb.New(time.Date(2010, time.July, 11, 11, 30, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, since.AsDuration())
}

func TestClientsClose(t *testing.T) {
	server := httptest.NewServer(NewHandler(NewEchoService(NewEchoRepository())))
	defer server.Close()

	clients, err := NewClients(server.URL, log.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, clients.Close())

	_, err = clients.Echo.Hello(context.Background(), SecretKey)
	require.ErrorIs(t, err, httpcontract.ErrClosed)
}
