package goldapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchPrice(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/XAU/THB" {
			t.Errorf("expected path /XAU/THB, got %s", r.URL.Path)
		}
		if token := r.Header.Get("x-access-token"); token != "test-key" {
			t.Errorf("expected access token header, got %q", token)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"price":    65000.5,
			"metal":    "XAU",
			"currency": "THB",
		}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "test-key", 5*time.Second)
	price, err := client.FetchPrice(context.Background())
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if price != 65000.5 {
		t.Errorf("price = %v, want 65000.5", price)
	}
}

func TestFetchPriceMissingPrice(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "quota exceeded"}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "test-key", 5*time.Second)
	if _, err := client.FetchPrice(context.Background()); err == nil {
		t.Error("expected error when response has no price")
	}
}

func TestFetchPriceUpstreamStatus(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "bad-key", 5*time.Second)
	if _, err := client.FetchPrice(context.Background()); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestFetchPriceMalformedBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "test-key", 5*time.Second)
	if _, err := client.FetchPrice(context.Background()); err == nil {
		t.Error("expected error on malformed body")
	}
}
