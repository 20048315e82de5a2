package flume

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

// Application is the top-level entry point. It receives a raw scope plus
// event stream handles from a gateway, constructs the appropriate connection
// variant, resolves the route, invokes the handler, and drives the handler's
// response to completion.
type Application struct {
	router *Router
	logger *slog.Logger
}

// New creates an application serving the given router. The router must be
// fully populated before the application starts handling connections.
func New(router *Router) *Application {
	return &Application{
		router: router,
		logger: slog.Default().With("component", "flume"),
	}
}

// SetLogger replaces the application's logger. A nil logger is ignored.
func (a *Application) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Router returns the application's router.
func (a *Application) Router() *Router {
	return a.router
}

// Handle processes one incoming connection to completion. It is the single
// per-connection entry point for gateways: one call per connection, run on
// the task the gateway dedicates to it.
func (a *Application) Handle(ctx context.Context, scope *Scope, receive ReceiveFunc, send SendFunc) error {
	switch scope.Kind {
	case ScopeHTTP:
		return a.handleHTTP(ctx, scope, receive, send)
	case ScopeWebSocket:
		return a.handleWebSocket(ctx, scope, receive, send)
	default:
		return fmt.Errorf("unknown scope kind %q", scope.Kind)
	}
}

func (a *Application) handleHTTP(ctx context.Context, scope *Scope, receive ReceiveFunc, send SendFunc) error {
	conn, err := NewHTTPConnection(scope, receive, send)
	if err != nil {
		return err
	}

	resolution := a.router.Resolve(ScopeHTTP, scope.Method, scope.Path)
	switch resolution.Kind {
	case ResolutionNotFound:
		return conn.SendResponse(ctx, statusResponse(http.StatusNotFound))
	case ResolutionMethodNotAllowed:
		response := statusResponse(http.StatusMethodNotAllowed)
		response.Headers.Add("Allow", strings.Join(resolution.Allowed, ", "))
		return conn.SendResponse(ctx, response)
	}

	conn.setParams(resolution.Params)

	response, err := a.invokeHTTP(ctx, resolution.Route.httpHandler, conn)
	if err != nil {
		a.logger.Error("handler error",
			"connection", conn.ID(),
			"path", scope.Path,
			"error", err)
		if conn.HeadersSent() {
			// A partial response cannot be un-sent. The gateway must tear
			// the transport down.
			return err
		}
		return conn.SendResponse(ctx, statusResponse(http.StatusInternalServerError))
	}

	if conn.Done() {
		return nil
	}
	if response != nil {
		return conn.SendResponse(ctx, response)
	}
	if conn.HeadersSent() {
		return conn.SendBody(ctx, nil, false)
	}

	a.logger.Error("handler produced no response",
		"connection", conn.ID(),
		"path", scope.Path)
	return conn.SendResponse(ctx, statusResponse(http.StatusInternalServerError))
}

func (a *Application) handleWebSocket(ctx context.Context, scope *Scope, receive ReceiveFunc, send SendFunc) error {
	conn, err := NewWebSocketConnection(scope, receive, send)
	if err != nil {
		return err
	}

	resolution := a.router.Resolve(ScopeWebSocket, "", scope.Path)
	if resolution.Kind != ResolutionMatched {
		// No handler was ever invoked, so there is nothing to run. Reject
		// with a 404-equivalent denial.
		err := conn.Deny(ctx, http.StatusNotFound, nil, []byte(http.StatusText(http.StatusNotFound)))
		if err != nil && err != ErrClientDisconnected {
			return err
		}
		return nil
	}

	conn.setParams(resolution.Params)

	if err := a.invokeWebSocket(ctx, resolution.Route.webSocketHandler, conn); err != nil {
		a.logger.Error("handler error",
			"connection", conn.ID(),
			"path", scope.Path,
			"error", err)
		if conn.State() == StateConnecting || conn.State() == StateConnected {
			return conn.Close(ctx, CloseInternalError)
		}
		return nil
	}

	// The handler returned without reaching a terminal state; guarantee a
	// terminal close event is emitted.
	if conn.State() != StateClosed && conn.State() != StateDenied {
		return conn.Close(ctx, CloseNormalClosure)
	}
	return nil
}

func (a *Application) invokeHTTP(ctx context.Context, handler HTTPHandler, conn *HTTPConnection) (response *Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("handler panic: %v", v)
			a.logger.Error("handler panic",
				"connection", conn.ID(),
				"panic", v,
				"stack", string(debug.Stack()))
		}
	}()
	return handler(ctx, conn)
}

func (a *Application) invokeWebSocket(ctx context.Context, handler WebSocketHandler, conn *WebSocketConnection) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("handler panic: %v", v)
			a.logger.Error("handler panic",
				"connection", conn.ID(),
				"panic", v,
				"stack", string(debug.Stack()))
		}
	}()
	return handler(ctx, conn)
}
