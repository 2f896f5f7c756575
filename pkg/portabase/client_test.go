package portabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/atanenl/portabase-go/pkg/httpclient"
	"github.com/google/go-cmp/cmp"
)

// stubResponse implements httpclient.Response.
type stubResponse struct {
	status int
	body   []byte
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }

// recordedRequest captures what the client handed to the transport, with
// multipart readers drained.
type recordedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Parts   []recordedPart
}

type recordedPart struct {
	Name        string
	FileName    string
	ContentType string
	Value       string
}

// fakeTransport records requests and replies with a fixed response or error.
type fakeTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	resp     stubResponse
	err      error
}

func (f *fakeTransport) Do(_ context.Context, req *httpclient.Request) (httpclient.Response, error) {
	rec := recordedRequest{Method: req.Method, URL: req.URL, Headers: req.Headers}
	for _, mf := range req.Multipart {
		raw, _ := io.ReadAll(mf.Reader)
		rec.Parts = append(rec.Parts, recordedPart{
			Name:        mf.Name,
			FileName:    mf.FileName,
			ContentType: mf.ContentType,
			Value:       string(raw),
		})
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, transport *fakeTransport) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: "https://demo.portabase.nl/", APIKey: "k1"}, WithHTTPClient(transport))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cases := []Config{
		{APIKey: "k1"},
		{BaseURL: "https://demo.portabase.nl"},
		{BaseURL: "   ", APIKey: "k1"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("New(%+v) error = %v, want ErrInvalidParameter", cfg, err)
		}
	}
}

func TestListHostsScenario(t *testing.T) {
	transport := &fakeTransport{resp: stubResponse{status: http.StatusOK, body: []byte(`[{"id":1,"name":"A"}]`)}}
	client := newTestClient(t, transport)

	hosts, err := client.ListHosts(context.Background())
	if err != nil {
		t.Fatalf("ListHosts: %v", err)
	}
	want := []Host{{"id": float64(1), "name": "A"}}
	if diff := cmp.Diff(want, hosts); diff != "" {
		t.Fatalf("hosts mismatch (-want +got):\n%s", diff)
	}

	req := transport.requests[0]
	if req.Method != http.MethodGet || req.URL != "https://demo.portabase.nl/api/1.0/gastouders" {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	wantHeaders := map[string]string{"api-key": "k1", "accept": "application/json"}
	if diff := cmp.Diff(wantHeaders, req.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHostNotFoundIsRemoteError(t *testing.T) {
	transport := &fakeTransport{resp: stubResponse{status: http.StatusNotFound, body: []byte(`"not found"`)}}
	client := newTestClient(t, transport)

	_, err := client.GetHost(context.Background(), 42)
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || string(apiErr.Body) != `"not found"` {
		t.Fatalf("unexpected error context %d %q", apiErr.StatusCode, apiErr.Body)
	}
	if got := transport.requests[0].URL; got != "https://demo.portabase.nl/api/1.0/gastouders/42" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestGetHostRejectsNonPositiveIDWithoutRequest(t *testing.T) {
	transport := &fakeTransport{resp: stubResponse{status: http.StatusOK, body: []byte(`{}`)}}
	client := newTestClient(t, transport)

	for _, id := range []int{0, -7} {
		if _, err := client.GetHost(context.Background(), id); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("GetHost(%d) error = %v, want ErrInvalidParameter", id, err)
		}
	}
	if transport.calls() != 0 {
		t.Fatalf("expected no requests, got %d", transport.calls())
	}
}

func TestParseHostID(t *testing.T) {
	if id, err := ParseHostID(" 42 "); err != nil || id != 42 {
		t.Fatalf("ParseHostID(42) = %d, %v", id, err)
	}
	for _, in := range []string{"abc", "", "4.2", "-1", "0"} {
		if _, err := ParseHostID(in); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("ParseHostID(%q) error = %v, want ErrInvalidParameter", in, err)
		}
	}
}

func TestListManagers(t *testing.T) {
	transport := &fakeTransport{resp: stubResponse{status: http.StatusOK, body: []byte(`[{"id":3},{"id":4}]`)}}
	client := newTestClient(t, transport)

	managers, err := client.ListManagers(context.Background())
	if err != nil {
		t.Fatalf("ListManagers: %v", err)
	}
	if len(managers) != 2 {
		t.Fatalf("expected 2 managers, got %d", len(managers))
	}
	if got := transport.requests[0].URL; got != "https://demo.portabase.nl/api/1.0/managers" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestResponseClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{status: http.StatusOK, body: `[]`},
		{status: http.StatusCreated, body: `[]`},
		{status: http.StatusCreated, body: ``},
		{status: http.StatusOK, body: " \n"},
		{status: http.StatusBadRequest, body: `[]`, want: ErrInvalidRequest},
		{status: http.StatusUnauthorized, body: `[]`, want: ErrUnauthorized},
		{status: http.StatusForbidden, body: `[]`, want: ErrUnauthorized},
		{status: http.StatusNotFound, body: `[]`, want: ErrRemote},
		{status: http.StatusInternalServerError, body: `[]`, want: ErrRemote},
		{status: http.StatusServiceUnavailable, body: `[]`, want: ErrRemote},
		{status: http.StatusNoContent, body: `[]`, want: ErrRemote},
	}

	for _, tc := range cases {
		transport := &fakeTransport{resp: stubResponse{status: tc.status, body: []byte(tc.body)}}
		client := newTestClient(t, transport)

		hosts, err := client.ListHosts(context.Background())
		if tc.want == nil {
			if err != nil {
				t.Fatalf("status %d body %q: unexpected error %v", tc.status, tc.body, err)
			}
			if hosts == nil || len(hosts) != 0 {
				t.Fatalf("status %d body %q: expected decoded empty slice, got %v", tc.status, tc.body, hosts)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: error = %v, want %v", tc.status, err, tc.want)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.status || string(apiErr.Body) != tc.body {
			t.Fatalf("status %d: missing response context in %v", tc.status, err)
		}
	}
}

func TestSuccessBodiesOfAnyShapeAreAccepted(t *testing.T) {
	attachment := writeTempFile(t, "ehbo.pdf", "pdf")
	submission := QualificationSubmission{HostID: 7, Type: QualificationVOG, Attachment: NewAttachment(attachment)}

	cases := []struct {
		name string
		call func(*Client) (any, error)
		body string
		want any
	}{
		{
			name: "submit with empty body",
			call: func(c *Client) (any, error) { return c.SubmitQualification(context.Background(), submission) },
			body: ``,
			want: Confirmation{},
		},
		{
			name: "submit with scalar body",
			call: func(c *Client) (any, error) { return c.SubmitQualification(context.Background(), submission) },
			body: `123`,
			want: Confirmation{"0": float64(123)},
		},
		{
			name: "submit with list body",
			call: func(c *Client) (any, error) { return c.SubmitQualification(context.Background(), submission) },
			body: `["ok"]`,
			want: Confirmation{"0": "ok"},
		},
		{
			name: "host wrapped in a list",
			call: func(c *Client) (any, error) { return c.GetHost(context.Background(), 42) },
			body: `[{"id":42}]`,
			want: Host{"id": float64(42)},
		},
		{
			name: "host with empty body",
			call: func(c *Client) (any, error) { return c.GetHost(context.Background(), 42) },
			body: ``,
			want: Host{},
		},
		{
			name: "managers as single object",
			call: func(c *Client) (any, error) { return c.ListManagers(context.Background()) },
			body: `{"id":1}`,
			want: []Manager{{"id": float64(1)}},
		},
		{
			name: "hosts with scalar items",
			call: func(c *Client) (any, error) { return c.ListHosts(context.Background()) },
			body: `[1]`,
			want: []Host{{"0": float64(1)}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, &fakeTransport{resp: stubResponse{status: http.StatusCreated, body: []byte(tc.body)}})
			got, err := tc.call(client)
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUndecodableSuccessBodyIsRemoteError(t *testing.T) {
	transport := &fakeTransport{resp: stubResponse{status: http.StatusOK, body: []byte(`<html>`)}}
	client := newTestClient(t, transport)

	_, err := client.ListHosts(context.Background())
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestTransportErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("connection refused")
	client := newTestClient(t, &fakeTransport{err: boom})

	_, err := client.ListManagers(context.Background())
	if err != boom {
		t.Fatalf("expected transport error unchanged, got %v", err)
	}
}

func TestClientAgainstHTTPServer(t *testing.T) {
	dir := t.TempDir()
	attachment := filepath.Join(dir, "ehbo.pdf")
	if err := os.WriteFile(attachment, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}

	var gotFields map[string][]string
	var gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "secret" || r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/1.0/gastouders":
			_, _ = w.Write([]byte(`[{"id":1}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/1.0/kwalificatie":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			gotFields = r.MultipartForm.Value
			if fh := r.MultipartForm.File["bijlage1"]; len(fh) == 1 {
				gotFile = fh[0].Filename
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":99}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hosts, err := client.ListHosts(context.Background())
	if err != nil || len(hosts) != 1 {
		t.Fatalf("ListHosts = %v, %v", hosts, err)
	}

	conf, err := client.SubmitQualification(context.Background(), QualificationSubmission{
		HostID:     7,
		Date:       "2024-01-01",
		ExpireDate: "2026-01-01",
		Type:       QualificationFirstAid,
		Attachment: NewAttachment(attachment),
	})
	if err != nil {
		t.Fatalf("SubmitQualification: %v", err)
	}
	if conf["id"] != float64(99) {
		t.Fatalf("unexpected confirmation %v", conf)
	}
	if gotFile != "ehbo.pdf" {
		t.Fatalf("expected uploaded file ehbo.pdf, got %q", gotFile)
	}
	if got := gotFields["gastouderId"]; len(got) != 1 || got[0] != "7" {
		t.Fatalf("unexpected gastouderId %v", got)
	}
	if _, ok := gotFields["opmerkingen"]; ok {
		t.Fatalf("opmerkingen must be omitted without comments")
	}

	bad, _ := New(Config{BaseURL: srv.URL, APIKey: "wrong"})
	if _, err := bad.ListHosts(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
