package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestDetectAuth tests auth-requirement detection against canned endpoints
func TestDetectAuth(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "Open endpoint",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			want: false,
		},
		{
			name: "Unauthorized status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: true,
		},
		{
			name: "Challenge header without auth status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
				w.WriteHeader(http.StatusForbidden)
			},
			want: true,
		},
		{
			name: "Payment required counts as gated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
			},
			want: true,
		},
		{
			name: "Plain not found is not gated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			svc := NewProbeService(2 * time.Second)

			got, err := svc.DetectAuth(context.Background(), ts.URL)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("DetectAuth = %v, expected %v", got, tt.want)
			}
		})
	}
}

// TestDetectAuth_Timeout tests that a stalled endpoint aborts the probe
func TestDetectAuth_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		ts.Close()
	}()

	svc := NewProbeService(50 * time.Millisecond)

	start := time.Now()
	_, err := svc.DetectAuth(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("Expected timeout error, got none")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Probe did not abort promptly, took %s", elapsed)
	}
}

// TestDetectAuth_BadURL tests request construction failures
func TestDetectAuth_BadURL(t *testing.T) {
	svc := NewProbeService(time.Second)

	if _, err := svc.DetectAuth(context.Background(), "://not-a-url"); err == nil {
		t.Fatal("Expected error for malformed url")
	}
}
