package flume

import "strings"

// Route is a single pattern to handler binding. Routes are created through
// a Router's registration methods and are immutable once registered.
type Route struct {
	pattern   *Pattern
	kind      ScopeKind
	methods   []string
	methodSet map[string]bool

	httpHandler      HTTPHandler
	webSocketHandler WebSocketHandler
}

// Pattern returns the route's compiled pattern.
func (r *Route) Pattern() *Pattern {
	return r.pattern
}

// Methods returns the route's allowed methods in registration order. Nil for
// WebSocket routes, which have no method concept.
func (r *Route) Methods() []string {
	return r.methods
}

func newHTTPRoute(patternStr string, methods []string, handler HTTPHandler) (*Route, error) {
	pattern, err := NewPattern(patternStr)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(methods))
	methodSet := make(map[string]bool, len(methods))
	for _, method := range methods {
		method = strings.ToUpper(method)
		if methodSet[method] {
			continue
		}
		methodSet[method] = true
		normalized = append(normalized, method)
	}

	return &Route{
		pattern:     pattern,
		kind:        ScopeHTTP,
		methods:     normalized,
		methodSet:   methodSet,
		httpHandler: handler,
	}, nil
}

func newWebSocketRoute(patternStr string, handler WebSocketHandler) (*Route, error) {
	pattern, err := NewPattern(patternStr)
	if err != nil {
		return nil, err
	}

	return &Route{
		pattern:          pattern,
		kind:             ScopeWebSocket,
		webSocketHandler: handler,
	}, nil
}

type matchOutcome int

const (
	// matchNone means the route does not apply to the request at all.
	matchNone matchOutcome = iota

	// matchWrongMethod means the path matched but the method is not allowed.
	// A route in this state contributes to the Allow set of a
	// method-not-allowed resolution.
	matchWrongMethod

	// matchFound means the route fully matches the request.
	matchFound
)

// match compares a request against the route. The path is only compared
// first; the method is checked after a successful path match so that a path
// match with a disallowed method can be distinguished from no match at all.
// A mismatch between the route's and the request's connection kind is an
// ordinary non-match.
func (r *Route) match(kind ScopeKind, method string, path string) (Params, matchOutcome) {
	if kind != r.kind {
		return nil, matchNone
	}

	params, ok := r.pattern.Match(path)
	if !ok {
		return nil, matchNone
	}

	if r.kind == ScopeHTTP && !r.methodSet[method] {
		return nil, matchWrongMethod
	}

	return params, matchFound
}
