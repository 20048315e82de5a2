package flume

import (
	"context"
	"fmt"
	"io"
)

// HTTPConnection is the request/response connection variant. It owns a
// lazily-materialized request body and a strict two-phase response send: one
// start event carrying status and headers, then one or more body events, the
// final one marked terminal.
//
// The request body is single-pass. Consuming it advances an internal cursor
// over a buffered accumulator: a repeated full read returns the already
// buffered bytes without touching the event stream again, and a chunked read
// after full consumption yields an empty chunk.
type HTTPConnection struct {
	connection

	body         []byte
	bodyComplete bool
	cursor       int

	headersSent bool
	done        bool
}

// NewHTTPConnection wraps a raw http-kind scope and its event stream
// handles. The scope kind must be ScopeHTTP.
func NewHTTPConnection(scope *Scope, receive ReceiveFunc, send SendFunc) (*HTTPConnection, error) {
	if scope.Kind != ScopeHTTP {
		return nil, fmt.Errorf("connection kind must be %q, not %q", ScopeHTTP, scope.Kind)
	}
	return &HTTPConnection{connection: newConnection(scope, receive, send)}, nil
}

// Body reads and returns the complete request body, buffering it on first
// call. Subsequent calls return the same bytes without consuming the event
// stream again. Returns ErrClientDisconnected if the client goes away before
// the body is complete.
func (c *HTTPConnection) Body(ctx context.Context) ([]byte, error) {
	for !c.bodyComplete {
		if err := c.receiveBodyEvent(ctx); err != nil {
			return nil, err
		}
	}
	c.cursor = len(c.body)
	return c.body, nil
}

// NextChunk returns the next chunk of the request body. The second return
// value reports whether more body may follow; once it is false the body is
// fully consumed and further calls return an empty chunk. Buffered bytes not
// yet consumed by chunk reads are returned before the event stream is read
// again, so chunk reads after a full Body read drain the buffer rather than
// duplicating receive events.
func (c *HTTPConnection) NextChunk(ctx context.Context) ([]byte, bool, error) {
	if c.cursor < len(c.body) {
		chunk := c.body[c.cursor:]
		c.cursor = len(c.body)
		return chunk, !c.bodyComplete, nil
	}
	if c.bodyComplete {
		return nil, false, nil
	}

	if err := c.receiveBodyEvent(ctx); err != nil {
		return nil, false, err
	}
	chunk := c.body[c.cursor:]
	c.cursor = len(c.body)
	return chunk, !c.bodyComplete, nil
}

func (c *HTTPConnection) receiveBodyEvent(ctx context.Context) error {
	event, err := c.receive(ctx)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventHTTPRequest:
		c.body = append(c.body, event.Body...)
		if !event.MoreBody {
			c.bodyComplete = true
		}
		return nil
	case EventHTTPDisconnect:
		return ErrClientDisconnected
	default:
		return fmt.Errorf("unexpected event %q while receiving request body", event.Type)
	}
}

// SendStart sends the response start event carrying the status code and
// headers. It must be called exactly once, before any body event. A zero
// status is sent as 200.
func (c *HTTPConnection) SendStart(ctx context.Context, status int, headers Header) error {
	if c.done {
		return &ConnectionClosedError{Op: "send response start"}
	}
	if c.headersSent {
		return &ProtocolError{Op: "send response start", State: "response already started"}
	}

	if status == 0 {
		status = 200
	}
	if err := c.send(ctx, &Event{
		Type:    EventHTTPResponseStart,
		Status:  status,
		Headers: headers,
	}); err != nil {
		return err
	}

	c.headersSent = true
	return nil
}

// SendBody sends one response body event. A moreBody of false marks the
// terminal event; after it the connection is done and any further send is a
// ConnectionClosedError.
func (c *HTTPConnection) SendBody(ctx context.Context, data []byte, moreBody bool) error {
	if c.done {
		return &ConnectionClosedError{Op: "send response body"}
	}
	if !c.headersSent {
		return &ProtocolError{Op: "send response body", State: "response not started"}
	}

	if err := c.send(ctx, &Event{
		Type:     EventHTTPResponseBody,
		Body:     data,
		MoreBody: moreBody,
	}); err != nil {
		return err
	}

	if !moreBody {
		c.done = true
	}
	return nil
}

// SendResponse drives a complete Response descriptor through the two-phase
// send: single-shot when the descriptor carries a Body, chunked when it
// carries a Stream.
func (c *HTTPConnection) SendResponse(ctx context.Context, response *Response) error {
	if err := c.SendStart(ctx, response.Status, response.Headers); err != nil {
		return err
	}

	if response.Stream == nil {
		return c.SendBody(ctx, response.Body, false)
	}

	if closer, ok := response.Stream.(io.Closer); ok {
		defer closer.Close()
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := response.Stream.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if err := c.SendBody(ctx, chunk, true); err != nil {
				return err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return c.SendBody(ctx, nil, false)
}

// HeadersSent reports whether the response start event has been sent. Once
// true, the response can no longer be replaced; errors after this point
// force-terminate the connection.
func (c *HTTPConnection) HeadersSent() bool {
	return c.headersSent
}

// Done reports whether the terminal response body event has been sent.
func (c *HTTPConnection) Done() bool {
	return c.done
}
