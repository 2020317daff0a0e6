package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/starius/httpcontract/example"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	clients, err := example.NewClients("http://127.0.0.1:8080", logger, nil)
	if err != nil {
		panic(err)
	}
	defer clients.Close()

	ctx := context.Background()

	session, err := clients.Echo.Hello(ctx, example.SecretKey)
	if err != nil {
		panic(err)
	}

	_, err = clients.Echo.Echo(ctx, "bad-session", "good-user", &example.EchoRequest{
		Text: "test",
	})
	if err == nil {
		panic("expected an error")
	}

	for _, text := range []string{"one", "two", "three"} {
		echoRes, err := clients.Echo.Echo(ctx, session, "good-user", &example.EchoRequest{
			Text: text,
		})
		if err != nil {
			panic(err)
		}
		fmt.Println(echoRes.User, echoRes.Text)
	}

	history, err := clients.Echo.History(ctx, session, example.Page{Offset: 1, Limit: 1})
	if err != nil {
		panic(err)
	}
	fmt.Println(history)

	since, err := clients.Clock.Since(ctx, timestamppb.New(time.Date(2020, time.July, 10, 11, 30, 0, 0, time.UTC)))
	if err != nil {
		panic(err)
	}
	fmt.Println(since.AsDuration())

	if err := clients.Echo.Forget(ctx, session); err != nil {
		panic(err)
	}
}
