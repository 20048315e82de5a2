package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/flumeframework/flume"
	"github.com/flumeframework/flume/httpgate"
)

func main() {
	router := flume.NewRouter()

	router.Get("/hello", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		return flume.NewResponse(200, []byte("Hello, world!")), nil
	})

	router.Get("/users/{id:int}", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		id, _ := conn.Params().Int("id")
		return flume.NewResponse(200, []byte(fmt.Sprintf("user %d", id))), nil
	})

	router.Get("/files/{name:path}", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		return &flume.Response{
			Status: 200,
			Stream: strings.NewReader("contents of " + conn.Params().Get("name")),
		}, nil
	})

	router.WebSocket("/echo", func(ctx context.Context, conn *flume.WebSocketConnection) error {
		if err := conn.Accept(ctx, nil); err != nil {
			return err
		}
		for {
			msg, err := conn.Receive(ctx)
			if err != nil {
				return err
			}
			if msg.Kind == flume.MessageDisconnect {
				return nil
			}
			if err := conn.Send(ctx, msg); err != nil {
				return err
			}
		}
	})

	app := flume.New(router)
	gate := httpgate.New(app)

	slog.Info("starting server on port 8167")
	if err := http.ListenAndServe(":8167", gate); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
