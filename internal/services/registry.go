package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

var ErrRegistryUnavailable = errors.New("registry unavailable")

// RegistryService fetches the catalog of available MCP servers from the
// upstream registry endpoint
type RegistryService struct {
	registryURL string
	client      *http.Client
}

// NewRegistryService creates a new RegistryService instance
func NewRegistryService(registryURL string) *RegistryService {
	return &RegistryService{
		registryURL: registryURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchServers retrieves the full server list from the upstream registry
func (s *RegistryService) FetchServers(ctx context.Context) ([]models.RegistryServer, error) {
	logger.WithField("registry_url", s.registryURL).Debug("Fetching upstream MCP registry")

	req, err := http.NewRequestWithContext(ctx, "GET", s.registryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.WithField("error", err.Error()).Error("Registry request failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status_code", resp.StatusCode).Warn("Registry returned non-OK status")
		return nil, fmt.Errorf("%w: status code %d", ErrRegistryUnavailable, resp.StatusCode)
	}

	var list models.RegistryListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	logger.WithField("count", len(list.Servers)).Info("Upstream registry fetched successfully")
	return list.Servers, nil
}
