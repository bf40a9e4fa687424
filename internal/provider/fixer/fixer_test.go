package fixer

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchLatest_RebasesFromEUR(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_key"); got != "test-key" {
			t.Errorf("expected access_key=test-key, got %s", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"base":"EUR","rates":{"EUR":1,"USD":1.08,"TRY":35.1}}`))
	}))
	defer ts.Close()

	c := New("test-key", WithClient(ts.Client()), WithEndpoint(ts.URL))

	rates, err := c.FetchLatest(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rates["USD"] != 1 {
		t.Errorf("expected USD 1, got %f", rates["USD"])
	}
	// 1 USD = 35.1/1.08 TRY
	if math.Abs(rates["TRY"]-35.1/1.08) > 1e-9 {
		t.Errorf("expected TRY %f, got %f", 35.1/1.08, rates["TRY"])
	}
	if math.Abs(rates["EUR"]-1/1.08) > 1e-9 {
		t.Errorf("expected EUR %f, got %f", 1/1.08, rates["EUR"])
	}
}

func TestFetchLatest_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":101,"info":"No API Key was specified."}}`))
	}))
	defer ts.Close()

	c := New("", WithClient(ts.Client()), WithEndpoint(ts.URL))

	if _, err := c.FetchLatest(context.Background(), "USD"); err == nil {
		t.Fatal("expected error for provider-reported failure")
	}
}

func TestFetchLatest_MissingPivot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"base":"EUR","rates":{"EUR":1,"TRY":35.1}}`))
	}))
	defer ts.Close()

	c := New("test-key", WithClient(ts.Client()), WithEndpoint(ts.URL))

	if _, err := c.FetchLatest(context.Background(), "USD"); err == nil {
		t.Fatal("expected error when payload lacks the requested base")
	}
}
