package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	var gotUA, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Test")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL, FetchOptions{Headers: map[string]string{"X-Test": "yes"}})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Fetch() = %q, want payload", data)
	}
	if !strings.HasPrefix(gotUA, "swatch/") {
		t.Errorf("User-Agent = %q, want swatch/ prefix", gotUA)
	}
	if gotHeader != "yes" {
		t.Errorf("X-Test = %q, want yes", gotHeader)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, FetchOptions{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Fetch() error = %v, want HTTP 404", err)
	}
}

func TestFetchMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.URL, FetchOptions{MaxBytes: 10}); err == nil {
		t.Error("Fetch() expected size error")
	}
	if _, err := Fetch(context.Background(), srv.URL, FetchOptions{MaxBytes: 100}); err != nil {
		t.Errorf("Fetch() at exact limit error: %v", err)
	}
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, srv.URL, FetchOptions{}); err == nil {
		t.Error("Fetch() with cancelled context expected error")
	}
}
