package flume

import "strings"

// ScopeKind identifies the protocol of an incoming connection.
type ScopeKind string

const (
	// ScopeHTTP is a request/response connection.
	ScopeHTTP ScopeKind = "http"

	// ScopeWebSocket is a full-duplex connection.
	ScopeWebSocket ScopeKind = "websocket"
)

// ExtensionDenialResponse is the scope extension key advertised by gateways
// that can reject a WebSocket upgrade with a full HTTP response instead of a
// bare close. See WebSocketConnection.Deny.
const ExtensionDenialResponse = "websocket.http.response"

// Scope carries the per-connection metadata supplied by a gateway when a
// connection arrives. It is read-only once handed to an Application.
type Scope struct {
	Kind ScopeKind

	// Method is the HTTP request method. Empty for websocket scopes.
	Method string

	Path     string
	RawQuery string
	Headers  Header

	Client *Addr
	Server *Addr

	// Extensions lists optional gateway capabilities, keyed by extension
	// name. A gateway that supports rejecting WebSocket upgrades with a
	// custom status and body includes ExtensionDenialResponse.
	Extensions map[string]any
}

// SupportsExtension reports whether the gateway advertised the named
// extension for this connection.
func (s *Scope) SupportsExtension(name string) bool {
	_, ok := s.Extensions[name]
	return ok
}

// Addr is a network endpoint as reported by the gateway.
type Addr struct {
	Host string
	Port int
}

// HeaderPair is a single header entry. Headers are kept as ordered pairs so
// duplicate keys and their original order survive the trip through the
// framework.
type HeaderPair struct {
	Key   string
	Value string
}

// Header is an ordered collection of header pairs. Key lookups are
// case-insensitive. Duplicate keys are preserved.
type Header []HeaderPair

// Get returns the first value associated with the given key, or an empty
// string if the key is not present.
func (h Header) Get(key string) string {
	for _, pair := range h {
		if strings.EqualFold(pair.Key, key) {
			return pair.Value
		}
	}
	return ""
}

// Values returns all values associated with the given key in the order they
// appear.
func (h Header) Values(key string) []string {
	var values []string
	for _, pair := range h {
		if strings.EqualFold(pair.Key, key) {
			values = append(values, pair.Value)
		}
	}
	return values
}

// Add appends a key value pair to the header.
func (h *Header) Add(key string, value string) {
	*h = append(*h, HeaderPair{Key: key, Value: value})
}
