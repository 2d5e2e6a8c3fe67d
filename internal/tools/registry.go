package tools

import (
	"context"
	"errors"
	"strings"
)

// ErrClientNotFound is returned when a registry lookup misses.
var ErrClientNotFound = errors.New("client not found")

// Client is one row of the client registry.
type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// Registry stores client records. Lookups match names case-insensitively.
type Registry interface {
	Get(ctx context.Context, name string) (Client, error)
	Add(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	List(ctx context.Context) ([]Client, error)
	Close() error
}

// NewRegistry creates a Postgres-backed registry when configured, otherwise a
// CSV file registry.
func NewRegistry(ctx context.Context, databaseURL, csvPath string) (Registry, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewCSVRegistry(csvPath)
	}
	return NewPostgresRegistry(ctx, databaseURL)
}
