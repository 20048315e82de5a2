package flume

import "context"

// HTTPHandler handles a request/response connection. The returned Response
// descriptor is driven to the client by the Application. A handler that
// drives the connection itself with SendStart and SendBody may return a nil
// Response. A returned error is mapped to a 500 response if the response
// headers have not been sent yet.
type HTTPHandler func(ctx context.Context, conn *HTTPConnection) (*Response, error)

// WebSocketHandler handles a full-duplex connection. The handler drives the
// accept, receive, send and close operations itself. If the handler returns
// before the connection reaches a terminal state the Application closes it.
// A returned error is mapped to a close with CloseInternalError if the
// connection is not already terminal.
type WebSocketHandler func(ctx context.Context, conn *WebSocketConnection) error
