package flume

import "context"

// Event types exchanged with a gateway. Inbound events arrive through a
// ReceiveFunc, outbound events leave through a SendFunc. The namespace
// mirrors the connection kind the event belongs to.
const (
	EventHTTPRequest       = "http.request"
	EventHTTPDisconnect    = "http.disconnect"
	EventHTTPResponseStart = "http.response.start"
	EventHTTPResponseBody  = "http.response.body"

	EventWebSocketConnect    = "websocket.connect"
	EventWebSocketReceive    = "websocket.receive"
	EventWebSocketDisconnect = "websocket.disconnect"
	EventWebSocketAccept     = "websocket.accept"
	EventWebSocketSend       = "websocket.send"
	EventWebSocketClose      = "websocket.close"

	// Denial-response extension events. Only valid when the scope advertises
	// ExtensionDenialResponse.
	EventWebSocketDenialStart = "websocket.http.response.start"
	EventWebSocketDenialBody  = "websocket.http.response.body"
)

// Event is a single protocol event exchanged with a gateway. Only the fields
// relevant to the event's Type are set.
type Event struct {
	Type string

	// Body and MoreBody frame http.request, http.response.body and
	// websocket.http.response.body events. A body event with MoreBody false
	// is the terminal event of its sequence.
	Body     []byte
	MoreBody bool

	// Status and Headers frame http.response.start, websocket.accept and
	// websocket.http.response.start events.
	Status  int
	Headers Header

	// Text carries the payload of a text frame on websocket.receive and
	// websocket.send events. IsText distinguishes an empty text frame from a
	// binary frame carried in Body.
	Text   string
	IsText bool

	// Code is the close code on websocket.close and websocket.disconnect
	// events.
	Code CloseCode

	// Subprotocol is the subprotocol selected on a websocket.accept event.
	Subprotocol string
}

// ReceiveFunc returns the next inbound event from the gateway. It blocks
// until an event is available, the context is cancelled, or the underlying
// transport fails.
type ReceiveFunc func(ctx context.Context) (*Event, error)

// SendFunc delivers an outbound event to the gateway. It blocks until the
// gateway has accepted the event, providing backpressure against slow
// clients.
type SendFunc func(ctx context.Context, event *Event) error
