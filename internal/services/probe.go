package services

import (
	"context"
	"net/http"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
)

// ProbeService detects whether a remote MCP endpoint demands
// authentication. The probe is the one outbound call in this service
// with an application-enforced deadline; everything else rides the
// client defaults.
type ProbeService struct {
	client  *http.Client
	timeout time.Duration
}

// NewProbeService creates a new ProbeService with the given hard timeout
func NewProbeService(timeout time.Duration) *ProbeService {
	return &ProbeService{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// DetectAuth sends an unauthenticated GET to url and reports whether the
// endpoint requires credentials. Unreachable endpoints report false with
// the error; the caller treats the result as advisory.
func (s *ProbeService) DetectAuth(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		}).Debug("Auth probe failed")
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusProxyAuthRequired:
		return true, nil
	}
	if resp.Header.Get("WWW-Authenticate") != "" {
		return true, nil
	}

	return false, nil
}
