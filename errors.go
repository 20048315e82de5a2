package flume

import "errors"

// ErrClientDisconnected is returned by connection operations when the client
// has gone away. For WebSocket receives a client disconnect is reported as a
// Disconnect message rather than this error; see
// WebSocketConnection.Receive.
var ErrClientDisconnected = errors.New("client disconnected")

// PatternError reports a malformed route pattern. It is raised at
// registration time and is fatal to startup. It is never produced while
// matching a request.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return "invalid route pattern \"" + e.Pattern + "\": " + e.Reason
}

// ProtocolError reports a connection operation called from a state in which
// it is not valid, such as denying a WebSocket connection that has already
// been accepted. It indicates a programmer error in handler code.
type ProtocolError struct {
	Op    string
	State string
}

func (e *ProtocolError) Error() string {
	return "cannot " + e.Op + " in state " + e.State
}

// ConnectionClosedError reports a send attempted after the connection's
// terminal event was already sent. It indicates a programmer error in
// handler code.
type ConnectionClosedError struct {
	Op string
}

func (e *ConnectionClosedError) Error() string {
	return "cannot " + e.Op + ": connection is closed"
}
