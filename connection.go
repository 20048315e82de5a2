package flume

import (
	"net/url"

	"github.com/google/uuid"
)

// connection is the capability shared by both connection kinds: the scope
// record, the gateway event stream handles, and the path parameters attached
// after route resolution. HTTPConnection and WebSocketConnection embed it;
// each adds its own protocol state machine on top.
type connection struct {
	id      string
	scope   *Scope
	receive ReceiveFunc
	send    SendFunc
	params  Params
	query   url.Values
}

func newConnection(scope *Scope, receive ReceiveFunc, send SendFunc) connection {
	return connection{
		id:      uuid.NewString(),
		scope:   scope,
		receive: receive,
		send:    send,
	}
}

// ID returns the framework-assigned identifier for this connection. It is
// stable for the lifetime of the connection and appears in log output.
func (c *connection) ID() string {
	return c.id
}

// Scope returns the raw scope record the connection was built from.
func (c *connection) Scope() *Scope {
	return c.scope
}

// Path returns the request path.
func (c *connection) Path() string {
	return c.scope.Path
}

// Method returns the request method. Empty for WebSocket connections.
func (c *connection) Method() string {
	return c.scope.Method
}

// Headers returns the request headers as ordered pairs.
func (c *connection) Headers() Header {
	return c.scope.Headers
}

// Query returns the parsed query parameters. Malformed query strings yield
// whatever prefix parsed cleanly.
func (c *connection) Query() url.Values {
	if c.query == nil {
		query, _ := url.ParseQuery(c.scope.RawQuery)
		c.query = query
	}
	return c.query
}

// Params returns the path parameters extracted by the matched route. Nil if
// no route has been attached, such as on connections built for synthesized
// error responses.
func (c *connection) Params() Params {
	return c.params
}

// Client returns the client address, if the gateway reported one.
func (c *connection) Client() *Addr {
	return c.scope.Client
}

// Server returns the server address, if the gateway reported one.
func (c *connection) Server() *Addr {
	return c.scope.Server
}

func (c *connection) setParams(params Params) {
	c.params = params
}
