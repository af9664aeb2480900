package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wilhg/mcp-ci/pkg/errmodel"
)

// newTestClient creates a Client backed by the given httptest.Server.
func newTestClient(t *testing.T, server *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		Timeout:    timeout,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewClient(Config{Token: "x", BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for non-http base url")
	}
	c, err := NewClient(Config{Token: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Fatalf("baseURL=%s", c.baseURL)
	}
}

func TestDo_HeadersWithBody(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != APIVersion {
			t.Errorf("X-GitHub-Api-Version = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	call := DispatchWorkflowCall("octo", "hello", "build.yml", DispatchWorkflowRequest{Ref: "main", Inputs: map[string]any{}})
	body, err := client.Do(context.Background(), call)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "{}" {
		t.Fatalf("empty body should read as {}, got %q", body)
	}
	if gotBody != `{"ref":"main","inputs":{}}` {
		t.Fatalf("request body = %s", gotBody)
	}
}

func TestDo_NoBodyOmitsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "" {
			t.Errorf("Content-Type should be unset, got %q", got)
		}
		if r.ContentLength > 0 {
			t.Errorf("unexpected request body of %d bytes", r.ContentLength)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("  \n"))
	}))
	defer server.Close()

	body, err := newTestClient(t, server, 0).Do(context.Background(), CancelWorkflowRunCall("o", "r", 7))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "{}" {
		t.Fatalf("whitespace body should read as {}, got %q", body)
	}
}

func TestDo_Non2xxIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not Found"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, 0).Do(context.Background(), GetWorkflowRunCall("o", "r", 1))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if got := apiErr.Error(); got != "404 Not Found: Not Found" {
		t.Fatalf("Error() = %q", got)
	}
	if !IsNotFound(err) || IsConflict(err) {
		t.Fatal("status helpers disagree")
	}
}

func TestDo_JSONErrorBodyParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Cannot cancel a workflow run that is completed.","documentation_url":"https://docs.github.com"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server, 0).Do(context.Background(), CancelWorkflowRunCall("o", "r", 1))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "Cannot cancel a workflow run that is completed." || apiErr.DocumentationURL == "" {
		t.Fatalf("wire error not parsed: %+v", apiErr)
	}
	if !strings.HasPrefix(apiErr.Error(), "409 Conflict: {") {
		t.Fatalf("Error() should carry raw body: %s", apiErr.Error())
	}
	if !IsConflict(err) {
		t.Fatal("expected conflict")
	}
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(t, server, 20*time.Millisecond).Do(context.Background(), GetWorkflowRunCall("o", "r", 1))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errmodel.IsCode(err, errmodel.CategoryNetwork, "transport") {
		t.Fatalf("expected network/transport, got %+v", errmodel.From(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain: %v", err)
	}
}

func TestDo_ResponseTooLarge(t *testing.T) {
	old := maxResponseBytes
	maxResponseBytes = 8
	t.Cleanup(func() { maxResponseBytes = old })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/actions/runs/1":
			_, _ = w.Write([]byte(`{"id":1}`)) // exactly at the limit
		case "/repos/o/r/actions/runs/2":
			_, _ = w.Write([]byte(`{"id":12345}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		}
	}))
	defer server.Close()
	client := newTestClient(t, server, 0)

	if body, err := client.Do(context.Background(), GetWorkflowRunCall("o", "r", 1)); err != nil || string(body) != `{"id":1}` {
		t.Fatalf("body=%q err=%v", body, err)
	}
	for _, runID := range []int64{2, 3} {
		_, err := client.Do(context.Background(), GetWorkflowRunCall("o", "r", runID))
		if !errmodel.IsCode(err, errmodel.CategoryUpstream, "response_too_large") {
			t.Fatalf("run %d: expected upstream/response_too_large, got %v", runID, err)
		}
		if !strings.Contains(err.Error(), "response too large") {
			t.Fatalf("message=%q", err.Error())
		}
	}
}

func TestDecode(t *testing.T) {
	var run WorkflowRun
	if err := Decode([]byte(`{"id":5,"conclusion":null}`), &run); err != nil {
		t.Fatal(err)
	}
	if string(run.ID) != "5" || string(run.Conclusion) != "null" || run.Name != nil {
		t.Fatalf("run=%+v", run)
	}
	err := Decode([]byte(`<html>`), &run)
	if !errmodel.IsCode(err, errmodel.CategoryUpstream, "decode") {
		t.Fatalf("expected upstream/decode, got %v", err)
	}
}
