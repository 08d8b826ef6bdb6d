package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/services"
	"github.com/gin-gonic/gin"
)

// TestRespondError tests the mapping from service errors to the HTTP
// error taxonomy
func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "Validation error maps to 400",
			err:        &services.ValidationError{Fields: map[string]string{"url": "url is required"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "Forbidden maps to 403",
			err:        services.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantError:  "forbidden",
		},
		{
			name:       "Scope integrity fault maps to opaque 500",
			err:        services.ErrScopeIntegrity,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
		{
			name:       "Missing record maps to 404",
			err:        repository.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "Missing oauth transaction maps to 404",
			err:        repository.ErrOAuthTransactionNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "Registry unavailability maps to 502",
			err:        services.ErrRegistryUnavailable,
			wantStatus: http.StatusBadGateway,
			wantError:  "registry_unavailable",
		},
		{
			name:       "Anything else maps to 500",
			err:        repository.ErrConstraintViolation,
			wantStatus: http.StatusInternalServerError,
			wantError:  "persistence_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Response is not JSON: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Fatalf("Expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}

// TestRespondError_ValidationDetails tests that field violations reach the
// client
func TestRespondError_ValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &services.ValidationError{Fields: map[string]string{
		"name": "name is required",
		"url":  "url is required for network transports",
	}})

	var body struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	if body.Details["name"] == "" || body.Details["url"] == "" {
		t.Fatalf("Field details missing: %+v", body.Details)
	}
}

// TestRespondError_IntegrityFaultDoesNotLeak tests that internal
// inconsistency never reaches the response body
func TestRespondError_IntegrityFaultDoesNotLeak(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, services.ErrScopeIntegrity)

	if strings.Contains(w.Body.String(), "scope") {
		t.Fatalf("Integrity detail leaked: %s", w.Body.String())
	}
}

// TestResolveProfile_MissingIdentity tests the 401 path when the auth
// middleware set nothing
func TestResolveProfile_MissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/servers", nil)

	if profile := resolveProfile(c, nil); profile != nil {
		t.Fatalf("Expected nil profile, got %+v", profile)
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}
