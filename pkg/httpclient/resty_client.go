package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Do executes the request and returns the raw response regardless of status code.
func (r *RestyClient) Do(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, errors.New("httpclient: nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Multipart) > 0 {
		rr.SetMultipartFields(toRestyFields(req.Multipart)...)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, &Request{Method: http.MethodGet, URL: url, Headers: headers})
}

// toRestyFields keeps the caller's order; resty writes multipart fields in slice order.
func toRestyFields(fields []MultipartField) []*resty.MultipartField {
	out := make([]*resty.MultipartField, 0, len(fields))
	for _, f := range fields {
		reader := f.Reader
		if reader == nil {
			reader = strings.NewReader("")
		}
		out = append(out, &resty.MultipartField{
			Param:       f.Name,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			Reader:      reader,
		})
	}
	return out
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
