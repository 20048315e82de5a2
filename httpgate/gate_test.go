package httpgate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/flumeframework/flume"
)

func newTestServer(t *testing.T, router *flume.Router) *httptest.Server {
	t.Helper()
	app := flume.New(router)
	app.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	gate := New(app)
	gate.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(gate)
	t.Cleanup(server.Close)
	return server
}

func TestGateServesRequest(t *testing.T) {
	router := flume.NewRouter()
	router.Get("/hello", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		response := flume.NewResponse(200, []byte("Hello, World!"))
		response.Headers.Add("Content-Type", "text/plain")
		return response, nil
	})
	server := newTestServer(t, router)

	res, err := http.Get(server.URL + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("expected Content-Type text/plain, got %q", ct)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "Hello, World!" {
		t.Errorf("expected body %q, got %q", "Hello, World!", body)
	}
}

func TestGateNotFound(t *testing.T) {
	server := newTestServer(t, flume.NewRouter())

	res, err := http.Get(server.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if res.StatusCode != 404 {
		t.Errorf("expected status 404, got %d", res.StatusCode)
	}
}

func TestGateMethodNotAllowed(t *testing.T) {
	router := flume.NewRouter()
	router.Post("/things", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		return flume.NewResponse(201, nil), nil
	})
	server := newTestServer(t, router)

	res, err := http.Get(server.URL + "/things")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if res.StatusCode != 405 {
		t.Errorf("expected status 405, got %d", res.StatusCode)
	}
	if allow := res.Header.Get("Allow"); allow != "POST" {
		t.Errorf("expected Allow header POST, got %q", allow)
	}
}

func TestGateRequestBody(t *testing.T) {
	router := flume.NewRouter()
	router.Post("/echo", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		body, err := conn.Body(ctx)
		if err != nil {
			return nil, err
		}
		return flume.NewResponse(200, body), nil
	})
	server := newTestServer(t, router)

	res, err := http.Post(server.URL+"/echo", "text/plain", strings.NewReader("round trip"))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "round trip" {
		t.Errorf("expected body to round trip, got %q", body)
	}
}

func TestGateStreamedResponse(t *testing.T) {
	router := flume.NewRouter()
	router.Get("/stream", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		return &flume.Response{
			Status: 200,
			Stream: strings.NewReader(strings.Repeat("x", 100*1024)),
		}, nil
	})
	server := newTestServer(t, router)

	res, err := http.Get(server.URL + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) != 100*1024 {
		t.Errorf("expected 100KiB of body, got %d bytes", len(body))
	}
}

func TestGateQueryAndParams(t *testing.T) {
	router := flume.NewRouter()
	router.Get("/users/{id:int}", func(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
		id, _ := conn.Params().Int("id")
		if id != 42 {
			t.Errorf("expected id param 42, got %d", id)
		}
		if got := conn.Query().Get("verbose"); got != "true" {
			t.Errorf("expected verbose query value true, got %q", got)
		}
		return flume.NewResponse(204, nil), nil
	})
	server := newTestServer(t, router)

	res, err := http.Get(server.URL + "/users/42?verbose=true")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if res.StatusCode != 204 {
		t.Errorf("expected status 204, got %d", res.StatusCode)
	}
}

func TestGateWebSocketEcho(t *testing.T) {
	router := flume.NewRouter()
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
	server := newTestServer(t, router)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/echo"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageText, []byte("marco")); err != nil {
		t.Fatal(err)
	}
	kind, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.MessageText || string(data) != "marco" {
		t.Errorf("expected the text message echoed back, got %v %q", kind, data)
	}

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatal(err)
	}
}

func TestGateWebSocketDenial(t *testing.T) {
	server := newTestServer(t, flume.NewRouter())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/missing"
	conn, res, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.CloseNow()
		t.Fatal("expected the upgrade to be rejected")
	}
	if res == nil || res.StatusCode != 404 {
		t.Fatalf("expected a 404 denial response, got %+v", res)
	}
}
