// Package httpgate bridges net/http to a flume application. It translates
// each incoming request into a scope plus receive/send event stream pair,
// upgrades WebSocket requests via github.com/coder/websocket, and supports
// rejecting an upgrade with a full HTTP response through the denial-response
// extension.
package httpgate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/flumeframework/flume"
)

// Gate serves a flume application over net/http. It implements http.Handler
// for use with Go's standard HTTP servers.
type Gate struct {
	app     *flume.Application
	origins []string
	logger  *slog.Logger
}

var _ http.Handler = &Gate{}

// New creates a gate serving the given application.
func New(app *flume.Application) *Gate {
	return &Gate{
		app:    app,
		logger: slog.Default().With("component", "httpgate"),
	}
}

// SetOrigins configures the allowed origin patterns for WebSocket upgrades.
// If not set, all origins are allowed (equivalent to []string{"*"}).
//
// Origin patterns support wildcards, for example:
//   - "https://example.com" - exact match
//   - "https://*.example.com" - subdomain wildcard
//   - "*" - allow all origins (default)
func (g *Gate) SetOrigins(origins []string) {
	g.origins = origins
}

// SetLogger replaces the gate's logger. A nil logger is ignored.
func (g *Gate) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// ServeHTTP implements the http.Handler interface. WebSocket upgrade
// requests are handled by the upgrade bridge; everything else flows through
// the plain request/response bridge.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgradeRequest(r) {
		g.serveWebSocket(w, r)
		return
	}
	g.serveRequest(w, r)
}

func (g *Gate) serveRequest(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r, flume.ScopeHTTP)
	receive := newBodyReceiver(r)
	send := newResponseSender(w)

	if err := g.app.Handle(r.Context(), scope, receive, send); err != nil {
		g.logger.Error("connection failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		// A response may be partially written. Abort the transport rather
		// than let the client wait on a response that will never complete.
		panic(http.ErrAbortHandler)
	}
}

func (g *Gate) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r, flume.ScopeWebSocket)
	scope.Extensions = map[string]any{flume.ExtensionDenialResponse: struct{}{}}

	bridge := newWebSocketBridge(g, w, r)

	err := g.app.Handle(r.Context(), scope, bridge.receive, bridge.send)
	if err != nil {
		g.logger.Error("websocket connection failed",
			"path", r.URL.Path,
			"error", err)
	}
	bridge.finish()
}

func isWebSocketUpgradeRequest(r *http.Request) bool {
	return r.Header.Get("Upgrade") == "websocket"
}

// newBodyReceiver streams the request body as http.request events. After the
// terminal body event it blocks until the client goes away and surfaces that
// as an http.disconnect event, so an in-flight receive fails promptly on
// cancellation instead of hanging.
func newBodyReceiver(r *http.Request) flume.ReceiveFunc {
	var bodyDone bool
	buf := make([]byte, 32*1024)

	return func(ctx context.Context) (*flume.Event, error) {
		if bodyDone {
			select {
			case <-r.Context().Done():
				return &flume.Event{Type: flume.EventHTTPDisconnect}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		n, err := r.Body.Read(buf)
		chunk := append([]byte(nil), buf[:n]...)
		if err == io.EOF {
			bodyDone = true
			return &flume.Event{Type: flume.EventHTTPRequest, Body: chunk, MoreBody: false}, nil
		}
		if err != nil {
			// A mid-body read failure means the client went away.
			bodyDone = true
			return &flume.Event{Type: flume.EventHTTPDisconnect}, nil
		}
		return &flume.Event{Type: flume.EventHTTPRequest, Body: chunk, MoreBody: true}, nil
	}
}

func newResponseSender(w http.ResponseWriter) flume.SendFunc {
	return func(ctx context.Context, event *flume.Event) error {
		switch event.Type {
		case flume.EventHTTPResponseStart:
			for _, pair := range event.Headers {
				w.Header().Add(pair.Key, pair.Value)
			}
			w.WriteHeader(event.Status)
			return nil
		case flume.EventHTTPResponseBody:
			if len(event.Body) != 0 {
				if _, err := w.Write(event.Body); err != nil {
					return err
				}
			}
			if event.MoreBody {
				if flusher, ok := w.(http.Flusher); ok {
					flusher.Flush()
				}
			}
			return nil
		default:
			return fmt.Errorf("unexpected event %q on http connection", event.Type)
		}
	}
}

func scopeFromRequest(r *http.Request, kind flume.ScopeKind) *flume.Scope {
	var headers flume.Header
	for key, values := range r.Header {
		for _, value := range values {
			headers.Add(key, value)
		}
	}

	scope := &flume.Scope{
		Kind:     kind,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Headers:  headers,
		Client:   parseAddr(r.RemoteAddr),
		Server:   parseAddr(r.Host),
	}
	if kind == flume.ScopeHTTP {
		scope.Method = r.Method
	}
	return scope
}

func parseAddr(hostPort string) *flume.Addr {
	if hostPort == "" {
		return nil
	}
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return &flume.Addr{Host: hostPort}
	}
	port, _ := strconv.Atoi(portStr)
	return &flume.Addr{Host: host, Port: port}
}
