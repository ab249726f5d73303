package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskhive/api/internal/store"
)

// PgFTS answers task queries with PostgreSQL full-text search. It serves as
// the fallback when Meilisearch is not configured or unhealthy.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// SearchTasks ranks the caller's tasks with plainto_tsquery over titles and
// falls back to a substring match for terms the stemmer drops.
func (p *PgFTS) SearchTasks(ctx context.Context, userID int64, query string, limit int) ([]store.TaskHit, error) {
	if strings.TrimSpace(query) == "" {
		return []store.TaskHit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.completed, t.group_id, g.project_id
		FROM tasks t
		JOIN groups g ON g.id = t.group_id
		JOIN projects p ON p.id = g.project_id
		WHERE p.user_id = $1
		  AND (to_tsvector('english', t.title) @@ plainto_tsquery('english', $2)
		       OR t.title ILIKE '%' || $2 || '%')
		ORDER BY ts_rank(to_tsvector('english', t.title), plainto_tsquery('english', $2)) DESC, t.id
		LIMIT $3`,
		userID, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	hits := []store.TaskHit{}
	for rows.Next() {
		var hit store.TaskHit
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Completed, &hit.GroupID, &hit.ProjectID); err != nil {
			return nil, fmt.Errorf("fts scan: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
