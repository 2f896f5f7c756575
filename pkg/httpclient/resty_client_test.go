package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRestyClientGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != "[]" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
}

func TestRestyClientReturnsNon2xxAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "nope") {
		t.Fatalf("unexpected body %q", resp.Body())
	}
}

func TestRestyClientMultipartKeepsOrder(t *testing.T) {
	type part struct {
		Name        string
		FileName    string
		ContentType string
		Value       string
	}
	var got []part

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		mr, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipart reader: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				break
			}
			raw, _ := io.ReadAll(p)
			got = append(got, part{
				Name:        p.FormName(),
				FileName:    p.FileName(),
				ContentType: p.Header.Get("Content-Type"),
				Value:       string(raw),
			})
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Multipart: []MultipartField{
			{Name: "b", Reader: strings.NewReader("2")},
			{Name: "file", FileName: "doc.pdf", ContentType: "application/pdf", Reader: strings.NewReader("%PDF")},
			{Name: "a", Reader: strings.NewReader("1")},
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode())
	}

	want := []part{
		{Name: "b", Value: "2"},
		{Name: "file", FileName: "doc.pdf", ContentType: "application/pdf", Value: "%PDF"},
		{Name: "a", Value: "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("multipart parts mismatch (-want +got):\n%s", diff)
	}
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(time.Second).Get(context.Background(), url, nil); err == nil {
		t.Fatalf("expected transport error for closed server")
	}
}

func TestRestyClientRejectsNilRequest(t *testing.T) {
	if _, err := NewRestyClient(time.Second).Do(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil request")
	}
}
