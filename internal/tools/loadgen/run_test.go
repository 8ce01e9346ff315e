package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassifyStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		302: "3xx",
		404: "4xx",
		500: "5xx",
		100: "other",
	}
	for status, want := range cases {
		if got := classifyStatusClass(status); got != want {
			t.Fatalf("classifyStatusClass(%d)=%q want %q", status, got, want)
		}
	}
}

func TestNormalizeProfile(t *testing.T) {
	if got := normalizeProfile(""); got != "mixed" {
		t.Fatalf("normalizeProfile empty=%q want mixed", got)
	}
	if got := normalizeProfile("  DEVICES  "); got != "devices" {
		t.Fatalf("normalizeProfile devices=%q want devices", got)
	}
	if got := normalizeProfile("bogus"); got != "mixed" {
		t.Fatalf("normalizeProfile bogus=%q want mixed", got)
	}
}

func TestRunRequiresSecret(t *testing.T) {
	_, err := Run(context.Background(), Config{BaseURL: "http://localhost:8080"})
	if err == nil {
		t.Fatal("expected an error without a signing secret")
	}
}

func TestRunGeneratesTraffic(t *testing.T) {
	var missingAuth atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			missingAuth.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:         srv.URL,
		Profile:         "me",
		Duration:        300 * time.Millisecond,
		RPS:             50,
		Concurrency:     4,
		Seed:            1,
		JWTIssuer:       "loadgen-test",
		JWTAudience:     "loadgen-test",
		JWTAccessSecret: "loadgen-test-secret",
		Users:           2,
		DevicesPerUser:  2,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 {
		t.Fatal("expected traffic to be generated")
	}
	if missingAuth.Load() != 0 {
		t.Fatalf("%d requests arrived without a bearer token", missingAuth.Load())
	}
	if res.StatusClasses["2xx"] == 0 {
		t.Fatal("expected successful requests to be classified")
	}
}
