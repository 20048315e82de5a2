package flume

import (
	"context"
	"errors"
)

// scriptedStream is an in-memory event stream for driving connections in
// tests: inbound events are scripted up front, outbound events are recorded.
type scriptedStream struct {
	inbound      []*Event
	sent         []*Event
	receiveCalls int
}

func newScriptedStream(inbound ...*Event) *scriptedStream {
	return &scriptedStream{inbound: inbound}
}

func (s *scriptedStream) receive(ctx context.Context) (*Event, error) {
	s.receiveCalls++
	if len(s.inbound) == 0 {
		return nil, errors.New("receive called with no scripted events remaining")
	}
	event := s.inbound[0]
	s.inbound = s.inbound[1:]
	return event, nil
}

func (s *scriptedStream) send(ctx context.Context, event *Event) error {
	s.sent = append(s.sent, event)
	return nil
}

func httpScope(method string, path string) *Scope {
	return &Scope{Kind: ScopeHTTP, Method: method, Path: path}
}

func webSocketScope(path string) *Scope {
	return &Scope{Kind: ScopeWebSocket, Path: path}
}

func webSocketScopeWithDenial(path string) *Scope {
	scope := webSocketScope(path)
	scope.Extensions = map[string]any{ExtensionDenialResponse: struct{}{}}
	return scope
}
