package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// MultipartField is one part of a multipart/form-data body. Parts with a
// FileName are sent as file uploads.
type MultipartField struct {
	Name        string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// Request describes a single outbound call. When Multipart is non-empty the
// body is encoded as multipart/form-data with the fields in slice order.
type Request struct {
	Method    string
	URL       string
	Headers   map[string]string
	Multipart []MultipartField
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations must return non-2xx responses as a Response, not an error.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
}
