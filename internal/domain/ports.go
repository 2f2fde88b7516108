package domain

import "context"

type ContentRepository interface {
	// Write paths
	UpsertContent(ctx context.Context, c ContentRecord) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	GetContent(ctx context.Context, id int64) (ContentRecord, error)
	ListProperties(ctx context.Context, q PropertiesQuery) (PropertiesPage, error)
}

type ContentClient interface {
	GetContent(ctx context.Context, id int64) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries
type PropertySummary struct {
	ID        int64   `json:"id"`
	Name      *string `json:"name"`
	FetchedAt string  `json:"fetched_at"`
}

type PropertiesQuery struct {
	Limit  int
	Cursor *int64
}

type PropertiesPage struct {
	Items      []PropertySummary `json:"items"`
	NextCursor *int64            `json:"next_cursor,omitempty"`
}
