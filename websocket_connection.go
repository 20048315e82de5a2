package flume

import (
	"context"
	"fmt"
)

// ConnectionState is the lifecycle state of a WebSocketConnection.
type ConnectionState int

const (
	// StateConnecting is the initial state, before any accept or deny event
	// has been sent.
	StateConnecting ConnectionState = iota

	// StateConnected is entered after a successful Accept.
	StateConnected

	// StateDenied is entered after Deny rejects the connection. Terminal.
	StateDenied

	// StateClosed is entered after Close, or when a client disconnect is
	// observed. Terminal.
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDenied:
		return "denied"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// MessageKind discriminates the messages returned by
// WebSocketConnection.Receive.
type MessageKind int

const (
	// MessageText is a text frame carried in Message.Text.
	MessageText MessageKind = iota

	// MessageBinary is a binary frame carried in Message.Data.
	MessageBinary

	// MessageDisconnect reports a client-initiated disconnect. The close
	// code is carried in Message.Code. It is a value, not an error: a
	// disconnect is an expected outcome of Receive.
	MessageDisconnect
)

// Message is a single WebSocket message.
type Message struct {
	Kind MessageKind
	Text string
	Data []byte
	Code CloseCode
}

// AcceptOptions configures the accept handshake event.
type AcceptOptions struct {
	// Subprotocol is the subprotocol selected by the application, if any.
	Subprotocol string

	// Headers are extra headers to attach to the handshake response.
	Headers Header
}

// WebSocketConnection is the full-duplex connection variant. It shares the
// addressable-connection surface of HTTPConnection (headers, path, query and
// path parameters) and adds the accept/receive/send/close handshake over it.
//
// The connection starts in StateConnecting. Accept or Deny must be called
// before any receive or send; calling an operation from the wrong state is a
// ProtocolError.
type WebSocketConnection struct {
	connection

	state           ConnectionState
	connectConsumed bool
}

// NewWebSocketConnection wraps a raw websocket-kind scope and its event
// stream handles. The scope kind must be ScopeWebSocket.
func NewWebSocketConnection(scope *Scope, receive ReceiveFunc, send SendFunc) (*WebSocketConnection, error) {
	if scope.Kind != ScopeWebSocket {
		return nil, fmt.Errorf("connection kind must be %q, not %q", ScopeWebSocket, scope.Kind)
	}
	return &WebSocketConnection{connection: newConnection(scope, receive, send)}, nil
}

// State returns the connection's current lifecycle state.
func (c *WebSocketConnection) State() ConnectionState {
	return c.state
}

// Accept accepts the connection, transitioning it from StateConnecting to
// StateConnected. Returns a ProtocolError if called from any other state,
// and ErrClientDisconnected if the client went away before the handshake
// completed.
func (c *WebSocketConnection) Accept(ctx context.Context, opts *AcceptOptions) error {
	if c.state != StateConnecting {
		return &ProtocolError{Op: "accept", State: c.state.String()}
	}

	if err := c.awaitConnect(ctx); err != nil {
		return err
	}

	event := &Event{Type: EventWebSocketAccept}
	if opts != nil {
		event.Subprotocol = opts.Subprotocol
		event.Headers = opts.Headers
	}
	if err := c.send(ctx, event); err != nil {
		return err
	}

	c.state = StateConnected
	return nil
}

// Deny rejects the connection with an HTTP-style status, headers and body,
// transitioning it from StateConnecting to StateDenied. The full response is
// only deliverable when the gateway advertises the denial-response
// extension; otherwise Deny degrades to a bare close event and the
// connection still transitions to StateDenied. Returns a ProtocolError if
// the connection has already been accepted.
func (c *WebSocketConnection) Deny(ctx context.Context, status int, headers Header, body []byte) error {
	if c.state != StateConnecting {
		return &ProtocolError{Op: "deny", State: c.state.String()}
	}

	if err := c.awaitConnect(ctx); err != nil {
		return err
	}

	if !c.scope.SupportsExtension(ExtensionDenialResponse) {
		if err := c.send(ctx, &Event{Type: EventWebSocketClose}); err != nil {
			return err
		}
		c.state = StateDenied
		return nil
	}

	if status == 0 {
		status = 403
	}
	if err := c.send(ctx, &Event{
		Type:    EventWebSocketDenialStart,
		Status:  status,
		Headers: headers,
	}); err != nil {
		return err
	}
	if err := c.send(ctx, &Event{
		Type:     EventWebSocketDenialBody,
		Body:     body,
		MoreBody: false,
	}); err != nil {
		return err
	}

	c.state = StateDenied
	return nil
}

// Receive blocks until the next client message arrives. A client disconnect
// is returned as a MessageDisconnect message, not an error, and transitions
// the connection to StateClosed. Returns a ProtocolError unless the
// connection is in StateConnected.
func (c *WebSocketConnection) Receive(ctx context.Context) (*Message, error) {
	if c.state != StateConnected {
		return nil, &ProtocolError{Op: "receive", State: c.state.String()}
	}

	event, err := c.receive(ctx)
	if err != nil {
		return nil, err
	}

	switch event.Type {
	case EventWebSocketReceive:
		if event.IsText {
			return &Message{Kind: MessageText, Text: event.Text}, nil
		}
		return &Message{Kind: MessageBinary, Data: event.Body}, nil
	case EventWebSocketDisconnect:
		c.state = StateClosed
		return &Message{Kind: MessageDisconnect, Code: event.Code}, nil
	default:
		return nil, fmt.Errorf("unexpected event %q while receiving message", event.Type)
	}
}

// Send sends a message to the client. Returns a ProtocolError unless the
// connection is in StateConnected.
func (c *WebSocketConnection) Send(ctx context.Context, message *Message) error {
	if c.state != StateConnected {
		return &ProtocolError{Op: "send", State: c.state.String()}
	}

	event := &Event{Type: EventWebSocketSend}
	switch message.Kind {
	case MessageText:
		event.Text = message.Text
		event.IsText = true
	case MessageBinary:
		event.Body = message.Data
	default:
		return fmt.Errorf("cannot send message of kind %d", message.Kind)
	}

	return c.send(ctx, event)
}

// SendText sends a text frame to the client.
func (c *WebSocketConnection) SendText(ctx context.Context, text string) error {
	return c.Send(ctx, &Message{Kind: MessageText, Text: text})
}

// SendBinary sends a binary frame to the client.
func (c *WebSocketConnection) SendBinary(ctx context.Context, data []byte) error {
	return c.Send(ctx, &Message{Kind: MessageBinary, Data: data})
}

// Close closes the connection with the given code. Closing an
// already-closed or denied connection is a no-op, since a double close is
// common in handler cleanup paths. A zero code is sent as
// CloseNormalClosure.
func (c *WebSocketConnection) Close(ctx context.Context, code CloseCode) error {
	switch c.state {
	case StateClosed, StateDenied:
		return nil
	case StateConnecting:
		if err := c.awaitConnect(ctx); err != nil {
			if err == ErrClientDisconnected {
				return nil
			}
			return err
		}
	}

	if code == 0 {
		code = CloseNormalClosure
	}
	if err := c.send(ctx, &Event{Type: EventWebSocketClose, Code: code}); err != nil {
		return err
	}

	c.state = StateClosed
	return nil
}

// awaitConnect consumes the gateway's websocket.connect event if it hasn't
// been consumed yet. The handshake events can only be sent once it has
// arrived.
func (c *WebSocketConnection) awaitConnect(ctx context.Context) error {
	if c.connectConsumed {
		return nil
	}

	event, err := c.receive(ctx)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventWebSocketConnect:
		c.connectConsumed = true
		return nil
	case EventWebSocketDisconnect:
		c.state = StateClosed
		return ErrClientDisconnected
	default:
		return fmt.Errorf("unexpected event %q while awaiting connect", event.Type)
	}
}
