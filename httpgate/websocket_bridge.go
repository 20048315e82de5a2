package httpgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/flumeframework/flume"
)

// webSocketBridge pumps events between the application and a WebSocket
// upgrade request. Until the application sends websocket.accept the bridge
// still holds the plain HTTP exchange, which is what lets it implement the
// denial-response extension natively: a denial simply writes the rejection
// response instead of upgrading.
type webSocketBridge struct {
	gate *Gate
	w    http.ResponseWriter
	r    *http.Request

	conn             *websocket.Conn
	connectDelivered bool
	denialStarted    bool
	finished         bool
}

func newWebSocketBridge(gate *Gate, w http.ResponseWriter, r *http.Request) *webSocketBridge {
	return &webSocketBridge{gate: gate, w: w, r: r}
}

func (b *webSocketBridge) receive(ctx context.Context) (*flume.Event, error) {
	if !b.connectDelivered {
		b.connectDelivered = true
		return &flume.Event{Type: flume.EventWebSocketConnect}, nil
	}

	if b.conn == nil {
		// Nothing can arrive before the upgrade completes. Wait for the
		// client to give up or the task to be cancelled.
		select {
		case <-b.r.Context().Done():
			return &flume.Event{Type: flume.EventWebSocketDisconnect, Code: flume.CloseAbnormalClosure}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	messageType, data, err := b.conn.Read(ctx)
	if err != nil {
		code := websocket.CloseStatus(err)
		if code == -1 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			code = websocket.StatusAbnormalClosure
		}
		b.finished = true
		return &flume.Event{Type: flume.EventWebSocketDisconnect, Code: flume.CloseCode(code)}, nil
	}

	if messageType == websocket.MessageText {
		return &flume.Event{Type: flume.EventWebSocketReceive, Text: string(data), IsText: true}, nil
	}
	return &flume.Event{Type: flume.EventWebSocketReceive, Body: data}, nil
}

func (b *webSocketBridge) send(ctx context.Context, event *flume.Event) error {
	switch event.Type {
	case flume.EventWebSocketAccept:
		return b.accept(event)
	case flume.EventWebSocketSend:
		if b.conn == nil {
			return errors.New("cannot send before the connection is accepted")
		}
		if event.IsText {
			return b.conn.Write(ctx, websocket.MessageText, []byte(event.Text))
		}
		return b.conn.Write(ctx, websocket.MessageBinary, event.Body)
	case flume.EventWebSocketClose:
		return b.close(event)
	case flume.EventWebSocketDenialStart:
		return b.denyStart(event)
	case flume.EventWebSocketDenialBody:
		return b.denyBody(event)
	default:
		return fmt.Errorf("unexpected event %q on websocket connection", event.Type)
	}
}

func (b *webSocketBridge) accept(event *flume.Event) error {
	if b.conn != nil {
		return errors.New("connection already accepted")
	}
	if b.denialStarted {
		return errors.New("connection already denied")
	}

	origins := b.gate.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	opts := &websocket.AcceptOptions{OriginPatterns: origins}
	if event.Subprotocol != "" {
		opts.Subprotocols = []string{event.Subprotocol}
	}
	for _, pair := range event.Headers {
		b.w.Header().Add(pair.Key, pair.Value)
	}

	conn, err := websocket.Accept(b.w, b.r, opts)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

func (b *webSocketBridge) close(event *flume.Event) error {
	if b.conn == nil {
		// A close before accept is a rejection without the denial
		// extension: answer the upgrade request with a plain 403.
		b.w.WriteHeader(http.StatusForbidden)
		b.finished = true
		return nil
	}

	code := event.Code
	if code == 0 {
		code = flume.CloseNormalClosure
	}
	b.finished = true
	_ = b.conn.Close(websocket.StatusCode(code), "")
	return nil
}

func (b *webSocketBridge) denyStart(event *flume.Event) error {
	if b.conn != nil {
		return errors.New("cannot deny an accepted connection")
	}
	if b.denialStarted {
		return errors.New("denial response already started")
	}

	for _, pair := range event.Headers {
		b.w.Header().Add(pair.Key, pair.Value)
	}
	status := event.Status
	if status == 0 {
		status = http.StatusForbidden
	}
	b.w.WriteHeader(status)
	b.denialStarted = true
	return nil
}

func (b *webSocketBridge) denyBody(event *flume.Event) error {
	if !b.denialStarted {
		return errors.New("denial response not started")
	}
	if len(event.Body) != 0 {
		if _, err := b.w.Write(event.Body); err != nil {
			return err
		}
	}
	if !event.MoreBody {
		b.finished = true
	}
	return nil
}

// finish tears down whatever is left after the application returns. The
// application guarantees a terminal event on every path, so this only acts
// when something went wrong at the bridge level.
func (b *webSocketBridge) finish() {
	if b.conn != nil && !b.finished {
		_ = b.conn.Close(websocket.StatusInternalError, "")
	}
}
