// Package natsgate serves a flume application over NATS request/reply.
// Request subjects map token-wise onto request paths: a message on
// "<prefix>.request.users.42" becomes a request for "/users/42". The request
// method travels in the "Method" message header, the response status comes
// back in the "Status" header of the reply.
package natsgate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/flumeframework/flume"
)

const (
	methodHeader = "Method"
	queryHeader  = "Query"
	statusHeader = "Status"
)

// Gate serves a flume application over a NATS connection. Only http-kind
// connections are supported; NATS request/reply has no full-duplex
// equivalent.
type Gate struct {
	app           *flume.Application
	conn          *nats.Conn
	subjectPrefix string
	sub           *nats.Subscription
	logger        *slog.Logger
}

// New creates a gate serving the given application over the given NATS
// connection. Requests are consumed from "<subjectPrefix>.request.>".
func New(app *flume.Application, conn *nats.Conn, subjectPrefix string) *Gate {
	return &Gate{
		app:           app,
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        slog.Default().With("component", "natsgate"),
	}
}

// SetLogger replaces the gate's logger. A nil logger is ignored.
func (g *Gate) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Start subscribes to the request subject space. Gates sharing a subject
// prefix join one queue group, so each request is handled by a single gate.
func (g *Gate) Start() error {
	sub, err := g.conn.QueueSubscribe(g.subjectPrefix+".request.>", g.subjectPrefix, func(msg *nats.Msg) {
		go g.serve(msg)
	})
	if err != nil {
		return err
	}
	g.sub = sub
	return nil
}

// Stop drains the subscription, letting in-flight requests finish.
func (g *Gate) Stop() error {
	if g.sub == nil {
		return nil
	}
	return g.sub.Drain()
}

func (g *Gate) serve(msg *nats.Msg) {
	scope := scopeFromMsg(msg, g.subjectPrefix)

	var bodyDelivered bool
	receive := func(ctx context.Context) (*flume.Event, error) {
		if !bodyDelivered {
			bodyDelivered = true
			return &flume.Event{Type: flume.EventHTTPRequest, Body: msg.Data, MoreBody: false}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	reply := &replyBuilder{msg: msg}

	if err := g.app.Handle(context.Background(), scope, receive, reply.send); err != nil {
		g.logger.Error("request failed",
			"subject", msg.Subject,
			"path", scope.Path,
			"error", err)
	}
}

// replyBuilder accumulates the two-phase response events and publishes the
// reply once the terminal body event arrives.
type replyBuilder struct {
	msg     *nats.Msg
	status  int
	headers flume.Header
	body    []byte
}

func (r *replyBuilder) send(ctx context.Context, event *flume.Event) error {
	switch event.Type {
	case flume.EventHTTPResponseStart:
		r.status = event.Status
		r.headers = event.Headers
		return nil
	case flume.EventHTTPResponseBody:
		r.body = append(r.body, event.Body...)
		if event.MoreBody {
			return nil
		}
		return r.respond()
	default:
		return fmt.Errorf("unexpected event %q on nats connection", event.Type)
	}
}

func (r *replyBuilder) respond() error {
	reply := nats.NewMsg(r.msg.Reply)
	reply.Header.Set(statusHeader, strconv.Itoa(r.status))
	for _, pair := range r.headers {
		reply.Header.Add(pair.Key, pair.Value)
	}
	reply.Data = r.body
	return r.msg.RespondMsg(reply)
}

func scopeFromMsg(msg *nats.Msg, subjectPrefix string) *flume.Scope {
	var headers flume.Header
	for key, values := range msg.Header {
		for _, value := range values {
			headers.Add(key, value)
		}
	}

	method := msg.Header.Get(methodHeader)
	if method == "" {
		method = "POST"
	}

	return &flume.Scope{
		Kind:     flume.ScopeHTTP,
		Method:   method,
		Path:     pathFromSubject(msg.Subject, subjectPrefix),
		RawQuery: msg.Header.Get(queryHeader),
		Headers:  headers,
	}
}

func pathFromSubject(subject string, subjectPrefix string) string {
	path := strings.TrimPrefix(subject, subjectPrefix+".request")
	return strings.ReplaceAll(path, ".", "/")
}
