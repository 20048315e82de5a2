// Package flume is a small adapter framework between gateway event streams
// and application handler code. It routes incoming HTTP requests and
// WebSocket connections to handlers by method and path, extracts typed path
// parameters, and mediates each connection's low-level receive/send event
// stream into a structured connection object.
//
// # Routing
//
// Routes are registered on a Router in order; the first full match wins and
// more specific patterns must be registered first. Patterns support named
// parameters with optional types:
//
//	router := flume.NewRouter()
//	router.Get("/hello", helloHandler)
//	router.Get("/users/{id:int}", userHandler)
//	router.Get("/files/{name:path}", fileHandler)
//	router.WebSocket("/live", liveHandler)
//
// Sub-routers mount under a literal prefix:
//
//	api := flume.NewRouter()
//	api.Get("/items/{id:int}", itemHandler)
//	router.Mount("/api", api)
//
// # Connections
//
// An HTTP handler receives an HTTPConnection and returns a Response
// descriptor, which the Application drives to the client:
//
//	func helloHandler(ctx context.Context, conn *flume.HTTPConnection) (*flume.Response, error) {
//	    return flume.NewResponse(200, []byte("hello")), nil
//	}
//
// A WebSocket handler drives the handshake itself:
//
//	func liveHandler(ctx context.Context, conn *flume.WebSocketConnection) error {
//	    if err := conn.Accept(ctx, nil); err != nil {
//	        return err
//	    }
//	    for {
//	        msg, err := conn.Receive(ctx)
//	        if err != nil {
//	            return err
//	        }
//	        if msg.Kind == flume.MessageDisconnect {
//	            return nil
//	        }
//	        if err := conn.SendText(ctx, msg.Text); err != nil {
//	            return err
//	        }
//	    }
//	}
//
// # Gateways
//
// The framework core never touches a network transport. Gateways supply a
// Scope plus receive/send event stream handles per connection and call
// Application.Handle on a task dedicated to that connection. The httpgate
// subpackage bridges net/http and WebSocket upgrades; the natsgate
// subpackage serves requests over NATS request/reply.
package flume
