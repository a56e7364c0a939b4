package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalize_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/normalize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req normalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Kind != "diagnosis" || req.Text != "pnemonia" {
			t.Errorf("payload = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(Interpretation{
			Term:    "pneumonia",
			Summary: "Likely community-acquired pneumonia.",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Normalize(context.Background(), "diagnosis", "pnemonia")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Term != "pneumonia" || got.Summary == "" {
		t.Fatalf("interpretation = %+v", got)
	}
}

func TestNormalize_EmptyTermFallsBackToInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(Interpretation{Summary: "no term"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Normalize(context.Background(), "diagnosis", "demam berdarah")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Term != "demam berdarah" {
		t.Fatalf("expected input fallback, got %q", got.Term)
	}
}

func TestNormalize_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Normalize(context.Background(), "diagnosis", "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNormalize_ClientErrorIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad kind", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Normalize(context.Background(), "unknown", "x")
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Fatalf("4xx must not map to ErrUnavailable, got %v", err)
	}
}

func TestNormalize_TransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Normalize(context.Background(), "diagnosis", "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
