// Package search finds tasks by title. Meilisearch serves queries when it
// is configured and healthy; otherwise the data store answers directly.
package search

import (
	"context"

	"taskhive/api/internal/store"
)

// Query describes a task search request. UserID scopes every query to the
// caller's own hierarchy.
type Query struct {
	UserID int64
	Text   string
	Limit  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []store.TaskHit `json:"results"`
	Total   int             `json:"total"`
	Query   string          `json:"query"`
}

// TaskRecord is the data indexed per task.
type TaskRecord struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	GroupID   int64  `json:"groupId"`
	ProjectID int64  `json:"projectId"`
	UserID    int64  `json:"userId"`
}

// Fallback answers queries from the primary data store when Meilisearch is
// unavailable. Both store backends implement it.
type Fallback interface {
	SearchTasks(ctx context.Context, userID int64, query string, limit int) ([]store.TaskHit, error)
}
