package flume

import (
	"net/http"
	"strings"
)

// Router is an ordered collection of routes and mounted sub-routers. It
// resolves an incoming request's kind, method and path to a handler plus
// extracted path parameters.
//
// Registration order is significant: the first fully matching entry wins,
// and no sorting by specificity is performed. Register more specific
// patterns first. Duplicate patterns are legal; later registrations are
// shadowed by earlier ones.
//
// A Router must be fully populated before serving begins. Once no further
// registrations occur, concurrent Resolve calls are safe without
// synchronization.
type Router struct {
	entries []routerEntry
}

type routerEntry struct {
	route       *Route
	mountPrefix string
	sub         *Router
}

// NewRouter creates and returns a new empty router.
func NewRouter() *Router {
	return &Router{}
}

// Handle registers a handler for HTTP requests matching the given pattern
// and any of the given methods. Panics if the pattern is malformed or no
// methods are provided; registration failures are startup-fatal.
func (r *Router) Handle(pattern string, methods []string, handler HTTPHandler) {
	if len(methods) == 0 {
		panic("no methods provided for route " + pattern)
	}
	if handler == nil {
		panic("no handler provided for route " + pattern)
	}

	route, err := newHTTPRoute(pattern, methods, handler)
	if err != nil {
		panic(err)
	}
	r.entries = append(r.entries, routerEntry{route: route})
}

// Get registers a handler for GET requests matching the given pattern.
func (r *Router) Get(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodGet}, handler)
}

// Post registers a handler for POST requests matching the given pattern.
func (r *Router) Post(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodPost}, handler)
}

// Put registers a handler for PUT requests matching the given pattern.
func (r *Router) Put(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodPut}, handler)
}

// Patch registers a handler for PATCH requests matching the given pattern.
func (r *Router) Patch(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodPatch}, handler)
}

// Delete registers a handler for DELETE requests matching the given pattern.
func (r *Router) Delete(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodDelete}, handler)
}

// Head registers a handler for HEAD requests matching the given pattern.
func (r *Router) Head(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodHead}, handler)
}

// Options registers a handler for OPTIONS requests matching the given pattern.
func (r *Router) Options(pattern string, handler HTTPHandler) {
	r.Handle(pattern, []string{http.MethodOptions}, handler)
}

// WebSocket registers a handler for WebSocket connections matching the given
// pattern. WebSocket routes match on protocol and path only; they have no
// method concept. Panics if the pattern is malformed.
func (r *Router) WebSocket(pattern string, handler WebSocketHandler) {
	if handler == nil {
		panic("no handler provided for route " + pattern)
	}

	route, err := newWebSocketRoute(pattern, handler)
	if err != nil {
		panic(err)
	}
	r.entries = append(r.entries, routerEntry{route: route})
}

// Mount registers a sub-router under the given literal prefix. At resolution
// time the sub-router's patterns behave as if each were rewritten with the
// prefix prepended. The mounted router is an opaque child: it keeps its own
// registration order, and the mount entry itself keeps its position in the
// parent's order.
func (r *Router) Mount(prefix string, sub *Router) {
	if sub == nil {
		panic("no sub-router provided for mount " + prefix)
	}
	if !strings.HasPrefix(prefix, "/") {
		panic((&PatternError{Pattern: prefix, Reason: "mount prefix must start with a leading slash"}).Error())
	}
	if strings.ContainsAny(prefix, "{}") {
		panic((&PatternError{Pattern: prefix, Reason: "mount prefix must be a literal path"}).Error())
	}

	prefix = strings.TrimSuffix(prefix, "/")
	r.entries = append(r.entries, routerEntry{mountPrefix: prefix, sub: sub})
}

// ResolutionKind classifies the result of a Resolve call.
type ResolutionKind int

const (
	// ResolutionNotFound means no route matched the request path.
	ResolutionNotFound ResolutionKind = iota

	// ResolutionMethodNotAllowed means at least one HTTP route matched the
	// request path but none allowed the request method.
	ResolutionMethodNotAllowed

	// ResolutionMatched means a route fully matched the request.
	ResolutionMatched
)

// Resolution is the result of resolving a request against a router.
type Resolution struct {
	Kind   ResolutionKind
	Params Params

	// Allowed lists the methods permitted on the request path when Kind is
	// ResolutionMethodNotAllowed, in registration order.
	Allowed []string

	// Route is the matched route when Kind is ResolutionMatched.
	Route *Route
}

// Resolve walks the router's entries in registration order, descending
// depth-first into mounted sub-routers, and returns the first full match.
// If no route matches the path at all the result is ResolutionNotFound. If
// one or more HTTP routes match the path but not the method the result is
// ResolutionMethodNotAllowed with the accumulated Allow set; the entire
// table is scanned in that case so the Allow set is complete. WebSocket
// routes never contribute to the Allow set, and a path match against a
// route of the wrong connection kind is an ordinary non-match.
func (r *Router) Resolve(kind ScopeKind, method string, path string) Resolution {
	method = strings.ToUpper(method)

	var allowed []string
	seen := map[string]bool{}

	if resolution, ok := r.resolve(kind, method, path, &allowed, seen); ok {
		return resolution
	}

	if len(allowed) != 0 {
		return Resolution{Kind: ResolutionMethodNotAllowed, Allowed: allowed}
	}
	return Resolution{Kind: ResolutionNotFound}
}

func (r *Router) resolve(kind ScopeKind, method string, path string, allowed *[]string, seen map[string]bool) (Resolution, bool) {
	for _, entry := range r.entries {
		if entry.sub != nil {
			rest, ok := trimMountPrefix(path, entry.mountPrefix)
			if !ok {
				continue
			}
			if resolution, ok := entry.sub.resolve(kind, method, rest, allowed, seen); ok {
				return resolution, true
			}
			continue
		}

		params, outcome := entry.route.match(kind, method, path)
		switch outcome {
		case matchFound:
			return Resolution{Kind: ResolutionMatched, Params: params, Route: entry.route}, true
		case matchWrongMethod:
			for _, m := range entry.route.methods {
				if !seen[m] {
					seen[m] = true
					*allowed = append(*allowed, m)
				}
			}
		}
	}
	return Resolution{}, false
}

func trimMountPrefix(path string, prefix string) (string, bool) {
	if prefix == "" {
		return path, true
	}
	if path == prefix {
		return "/", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):], true
	}
	return "", false
}
