package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Manifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp" {
			t.Errorf("path = %q, want /mcp", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		w.Write([]byte(`{"tools":[{"name":"create_item","description":"x","inputSchema":{}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	m, err := c.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest error: %v", err)
	}
	if len(m.Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(m.Tools))
	}
	if m.Tools[0].Name != "create_item" {
		t.Errorf("name = %q, want create_item", m.Tools[0].Name)
	}
}

func TestClient_Manifest_SendsAuthHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"tools":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, map[string]string{"Authorization": "Bearer tok"})
	if _, err := c.Manifest(context.Background()); err != nil {
		t.Fatalf("Manifest error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want 'Bearer tok'", gotAuth)
	}
}

func TestClient_Manifest_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Manifest(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClient_Manifest_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Manifest(context.Background()); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestClient_Manifest_MissingToolsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	m, err := c.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest error: %v", err)
	}
	if len(m.Tools) != 0 {
		t.Errorf("tools = %d, want 0", len(m.Tools))
	}
}

func TestClient_Call_PayloadAndPassthrough(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/call" {
			t.Errorf("path = %q, want /call", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	out, err := c.Call(context.Background(), "create_item", map[string]any{"board_id": float64(1)})
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if out != `{"id":42}` {
		t.Errorf("output = %q, want raw body", out)
	}
	if gotBody["tool"] != "create_item" {
		t.Errorf("tool = %v, want create_item", gotBody["tool"])
	}
	args, ok := gotBody["arguments"].(map[string]any)
	if !ok {
		t.Fatalf("arguments missing or wrong type: %v", gotBody["arguments"])
	}
	if args["board_id"] != float64(1) {
		t.Errorf("board_id = %v, want 1", args["board_id"])
	}
}

func TestClient_Call_NilArgs(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := r.Body.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		raw = sb.String()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Call(context.Background(), "noop", nil); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if !strings.Contains(raw, `"arguments":{}`) {
		t.Errorf("nil args should marshal as empty object, got %s", raw)
	}
}

func TestClient_Call_HTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Call(context.Background(), "create_item", nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry status, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should carry response body, got %v", err)
	}
}

func TestClient_Call_SendsAuthHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, map[string]string{"Authorization": "Bearer tok"})
	if _, err := c.Call(context.Background(), "x", nil); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want 'Bearer tok'", gotAuth)
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("https://example.com/base/", nil)
	if c.Endpoint() != "https://example.com/base" {
		t.Errorf("endpoint = %q", c.Endpoint())
	}
}
