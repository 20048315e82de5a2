package flume

import (
	"io"
	"net/http"
)

// Response describes an HTTP response for the Application to drive through
// the gateway send primitive. A Response carries either a complete Body or a
// lazy Stream of body chunks, not both; when Stream is set it takes
// precedence and the response is sent chunked.
type Response struct {
	// Status is the HTTP status code. Zero means 200.
	Status int

	// Headers are the response headers as ordered pairs.
	Headers Header

	// Body is the complete response body. Sent as a single terminal body
	// event.
	Body []byte

	// Stream is a lazy byte-chunk sequence. It is read only while the
	// response is being driven, each chunk becoming one body event, followed
	// by an empty terminal event. If the stream also implements io.Closer it
	// is closed after the final read.
	Stream io.Reader
}

// NewResponse returns a Response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Body: body}
}

// statusResponse builds the minimal plain-text response used for synthesized
// errors such as 404 and 500.
func statusResponse(status int) *Response {
	return &Response{
		Status:  status,
		Headers: Header{{Key: "Content-Type", Value: "text/plain; charset=utf-8"}},
		Body:    []byte(http.StatusText(status)),
	}
}
