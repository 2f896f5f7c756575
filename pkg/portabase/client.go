// Package portabase is a client for the PortaBase childcare administration API.
//
// Every call issues exactly one HTTP request. Responses with status 200 or 201
// are decoded as JSON; other statuses are returned as *Error values whose Kind
// is one of ErrInvalidRequest, ErrUnauthorized or ErrRemote. Transport failures
// are returned as produced by the underlying httpclient.Client.
package portabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atanenl/portabase-go/pkg/httpclient"
)

const (
	apiPrefix = "/api/1.0"

	headerAPIKey = "api-key"
	headerAccept = "accept"
	acceptJSON   = "application/json"

	// DefaultTimeout applies to the default resty transport only.
	DefaultTimeout = 30 * time.Second
)

// Host is a gastouder (host parent) record. Its fields are not interpreted.
type Host = map[string]any

// Manager is a manager record. Its fields are not interpreted.
type Manager = map[string]any

// Confirmation is the decoded body of a successful qualification submission.
type Confirmation = map[string]any

// Config holds the endpoint and credentials of a PortaBase installation.
type Config struct {
	// BaseURL is the protocol and domain, e.g. https://demo.portabase.nl
	BaseURL string
	APIKey  string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the timeout of the default transport. Ignored when
// WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client talks to one PortaBase installation. It is safe for concurrent use.
type Client struct {
	baseURL string
	headers map[string]string
	http    httpclient.Client
	timeout time.Duration
	open    func(path string) (io.ReadCloser, error)
}

// New builds a Client. It performs no network activity.
func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, invalidParameter("base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, invalidParameter("api key is required")
	}

	c := &Client{
		baseURL: baseURL,
		headers: map[string]string{
			headerAPIKey: cfg.APIKey,
			headerAccept: acceptJSON,
		},
		timeout: DefaultTimeout,
		open:    openFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(c.timeout)
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListHosts returns all host parents.
func (c *Client) ListHosts(ctx context.Context) ([]Host, error) {
	body, err := c.get(ctx, "/gastouders")
	if err != nil {
		return nil, err
	}
	return asRecords(body), nil
}

// GetHost returns a single host parent. hostID must be positive.
func (c *Client) GetHost(ctx context.Context, hostID int) (Host, error) {
	if hostID <= 0 {
		return nil, invalidParameter(fmt.Sprintf("host id must be a positive integer, got %d", hostID))
	}
	body, err := c.get(ctx, "/gastouders/"+strconv.Itoa(hostID))
	if err != nil {
		return nil, err
	}
	// Some installations wrap the host in a one-element list.
	if list, ok := body.([]any); ok && len(list) == 1 {
		if obj, ok := list[0].(map[string]any); ok {
			return obj, nil
		}
	}
	return asRecord(body), nil
}

// ParseHostID converts a textual host identifier for GetHost.
func ParseHostID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, invalidParameter(fmt.Sprintf("host id must be a positive integer, got %q", s))
	}
	return id, nil
}

// ListManagers returns all managers.
func (c *Client) ListManagers(ctx context.Context) ([]Manager, error) {
	body, err := c.get(ctx, "/managers")
	if err != nil {
		return nil, err
	}
	return asRecords(body), nil
}

// SubmitQualification uploads a qualification with its attachments.
// Attachment files are opened for the duration of the call and always closed.
func (c *Client) SubmitQualification(ctx context.Context, sub QualificationSubmission) (Confirmation, error) {
	parts, err := BuildParts(sub)
	if err != nil {
		return nil, err
	}

	fields, closeFiles, err := c.multipartFields(parts)
	defer closeFiles()
	if err != nil {
		return nil, err
	}

	req := &httpclient.Request{
		Method:    http.MethodPost,
		URL:       c.url("/kwalificatie"),
		Multipart: fields,
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return asRecord(body), nil
}

// multipartFields opens every file part. The returned func closes whatever
// was opened and is safe to call even when an error is returned.
func (c *Client) multipartFields(parts []Part) ([]httpclient.MultipartField, func(), error) {
	var opened []io.Closer
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	fields := make([]httpclient.MultipartField, 0, len(parts))
	for _, p := range parts {
		if p.File == nil {
			fields = append(fields, httpclient.MultipartField{Name: p.Name, Reader: strings.NewReader(p.Value)})
			continue
		}
		f, err := c.open(p.File.Path)
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s attachment: %w", p.Name, err)
		}
		opened = append(opened, f)
		fields = append(fields, httpclient.MultipartField{
			Name:        p.Name,
			FileName:    p.File.FileName,
			ContentType: p.File.ContentType,
			Reader:      f,
		})
	}
	return fields, closeAll, nil
}

func (c *Client) get(ctx context.Context, path string) (any, error) {
	return c.do(ctx, &httpclient.Request{Method: http.MethodGet, URL: c.url(path)})
}

func (c *Client) do(ctx context.Context, req *httpclient.Request) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.Headers = c.requestHeaders()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (c *Client) requestHeaders() map[string]string {
	h := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		h[k] = v
	}
	return h
}

func (c *Client) url(path string) string {
	return c.baseURL + apiPrefix + path
}

// parseResponse applies the status classification and decodes successes.
// An empty success body decodes to nil; only bytes that are not JSON fail.
func parseResponse(resp httpclient.Response) (any, error) {
	status := resp.StatusCode()
	body := resp.Body()

	if !isSuccess(status) {
		return nil, &Error{Kind: classifyStatus(status), StatusCode: status, Body: body}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Error{Kind: ErrRemote, StatusCode: status, Body: body, Message: "decode response", Err: err}
	}
	return decoded, nil
}

// asRecord shapes any decoded JSON value as an object. Lists are keyed by
// index and scalars are stored under "0".
func asRecord(v any) map[string]any {
	switch val := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return val
	case []any:
		out := make(map[string]any, len(val))
		for i, item := range val {
			out[strconv.Itoa(i)] = item
		}
		return out
	default:
		return map[string]any{"0": val}
	}
}

// asRecords shapes any decoded JSON value as a list of objects. A single
// object becomes a one-element list.
func asRecords(v any) []map[string]any {
	switch val := v.(type) {
	case nil:
		return []map[string]any{}
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
				continue
			}
			out = append(out, map[string]any{"0": item})
		}
		return out
	default:
		return []map[string]any{asRecord(val)}
	}
}

func openFile(path string) (io.ReadCloser, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty path")
	}
	return os.Open(path)
}
