package services

import (
	"context"
	"fmt"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/normalize"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/schema"
	"github.com/google/uuid"
)

// RowResult is the outcome of reconciling a single stored server row.
// The batch never aborts on a row failure; partial success stays
// explicit and auditable.
type RowResult struct {
	Namespace     string `json:"namespace"`
	Changed       bool   `json:"changed"`
	FromTransport string `json:"from_transport,omitempty"`
	ToTransport   string `json:"to_transport,omitempty"`
	FromURL       string `json:"from_url,omitempty"`
	ToURL         string `json:"to_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

// registryFetcher is the subset of RegistryService the reconciler needs
type registryFetcher interface {
	FetchServers(ctx context.Context) ([]models.RegistryServer, error)
}

// ReconcilerService repairs stored transport/url values against the
// upstream registry. It is best-effort: rows it cannot confidently
// resolve are skipped, and a second run with no upstream changes
// produces zero additional updates.
type ReconcilerService struct {
	registry registryFetcher
	servers  repository.ServerRepository
	revision *schema.Revision
}

// NewReconcilerService creates a new ReconcilerService instance
func NewReconcilerService(registry registryFetcher, servers repository.ServerRepository, revision *schema.Revision) *ReconcilerService {
	return &ReconcilerService{
		registry: registry,
		servers:  servers,
		revision: revision,
	}
}

// Reconcile fetches the registry, diffs registry-sourced rows against the
// freshly normalized transport/url, and applies each repair independently
func (s *ReconcilerService) Reconcile(ctx context.Context) ([]RowResult, error) {
	entries, err := s.registry.FetchServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry: %w", err)
	}

	// Index registry entries by namespace; only matched rows are
	// eligible for repair
	byNamespace := make(map[string]models.RegistryServer, len(entries))
	for _, entry := range entries {
		byNamespace[entry.Name] = entry
	}

	stored, err := s.servers.GetBySource(ctx, models.SourceRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry-sourced servers: %w", err)
	}

	results := make([]RowResult, 0)
	for _, server := range stored {
		entry, ok := byNamespace[server.Namespace]
		if !ok {
			// Unmatched rows are left untouched
			continue
		}

		repair, needed := normalize.NeedsRepair(server, entry.Remotes)
		if !needed {
			continue
		}

		result := RowResult{
			Namespace:     server.Namespace,
			FromTransport: server.TransportType,
			ToTransport:   repair.TransportType,
			FromURL:       server.URL,
			ToURL:         repair.URL,
		}

		if err := s.servers.UpdateTransport(ctx, server.Namespace, repair.TransportType, repair.URL); err != nil {
			result.Error = err.Error()
			logger.WithFields(map[string]interface{}{
				"namespace": server.Namespace,
				"error":     err.Error(),
			}).Error("Failed to repair server transport")
		} else {
			result.Changed = true
			logger.WithFields(map[string]interface{}{
				"namespace":      server.Namespace,
				"from_transport": result.FromTransport,
				"to_transport":   result.ToTransport,
			}).Info("Repaired server transport")
		}

		results = append(results, result)
	}

	logger.WithFields(map[string]interface{}{
		"examined": len(stored),
		"changed":  countChanged(results),
	}).Info("Registry reconciliation completed")

	return results, nil
}

// ImportNew inserts registry entries that have no stored row yet as
// enabled, system-scoped, registry-sourced servers. Entries that already
// exist are left for Reconcile to repair.
func (s *ReconcilerService) ImportNew(ctx context.Context) ([]RowResult, error) {
	entries, err := s.registry.FetchServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry: %w", err)
	}

	stored, err := s.servers.GetBySource(ctx, models.SourceRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry-sourced servers: %w", err)
	}
	known := make(map[string]bool, len(stored))
	for _, server := range stored {
		known[server.Namespace] = true
	}

	results := make([]RowResult, 0)
	for _, entry := range entries {
		if known[entry.Name] {
			continue
		}

		transportType, url := normalize.Transport(entry.Remotes)
		if transportType == models.TransportStdio {
			url = models.StdioURLSentinel
		}

		now := time.Now()
		server := &models.McpServer{
			Id:            uuid.New().String(),
			Namespace:     entry.Name, // upstream namespace kept verbatim
			Name:          entry.Name,
			Description:   entry.Description,
			TransportType: transportType,
			URL:           url,
			AuthType:      normalize.AuthType(entry.Auth, s.revision),
			Scope:         models.ScopeSystem,
			Source:        models.SourceRegistry,
			Tier:          models.TierCurated,
			Enabled:       true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result := RowResult{
			Namespace:   server.Namespace,
			ToTransport: transportType,
			ToURL:       url,
		}
		if err := s.servers.Upsert(ctx, server); err != nil {
			result.Error = err.Error()
			logger.WithFields(map[string]interface{}{
				"namespace": server.Namespace,
				"error":     err.Error(),
			}).Error("Failed to import registry server")
		} else {
			result.Changed = true
		}
		results = append(results, result)
	}

	logger.WithField("imported", countChanged(results)).Info("Registry import completed")
	return results, nil
}

func countChanged(results []RowResult) int {
	n := 0
	for _, r := range results {
		if r.Changed {
			n++
		}
	}
	return n
}
