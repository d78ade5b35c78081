// Package secrets fetches deployment secrets from Google Secret Manager and
// caches them for the lifetime of the process. Secrets are read once per name
// and reused across every repository a saga injects them into.
package secrets

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"google.golang.org/api/secretmanager/v1"

	apperrors "github.com/wizbi/wizbi/internal/errors"
)

// Fetcher resolves a secret name to its latest payload.
type Fetcher interface {
	// Fetch returns the latest version of the named secret.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Client reads secrets from one GCP project's Secret Manager.
type Client struct {
	service   *secretmanager.Service
	projectID string
}

// NewClient creates a Secret Manager client scoped to the given project.
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	service, err := secretmanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager service: %w", err)
	}
	return &Client{service: service, projectID: projectID}, nil
}

// Fetch returns the latest version of the named secret.
func (c *Client) Fetch(ctx context.Context, name string) ([]byte, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, name)
	resp, err := c.service.Projects.Secrets.Versions.Access(resource).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to access secret "+name, err)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to decode secret "+name, err)
	}
	return data, nil
}

// Cache memoizes secret payloads by name. Safe for concurrent use by the
// worker pool.
type Cache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	values map[string][]byte
}

// NewCache creates a cache in front of the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		values:  make(map[string][]byte),
	}
}

// Get returns the named secret, fetching it on first use.
func (c *Cache) Get(ctx context.Context, name string) ([]byte, error) {
	c.mu.RLock()
	value, ok := c.values[name]
	c.mu.RUnlock()
	if ok {
		return value, nil
	}

	value, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.values[name] = value
	c.mu.Unlock()

	return value, nil
}
