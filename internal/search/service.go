package search

import (
	"context"
	"log"

	"taskhive/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to the
// data store. meili may be nil when Meilisearch is not configured.
type Service struct {
	meili    *Meili
	fallback Fallback
}

func NewService(meili *Meili, fallback Fallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search answers a task query. A Meilisearch failure degrades to the store
// rather than failing the request.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if q.Limit == 0 {
		q.Limit = 20
	}

	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to store: %v", err)
	}

	results, err := s.fallback.SearchTasks(ctx, q.UserID, q.Text, q.Limit)
	if err != nil {
		log.Printf("search: store fallback error: %v", err)
		return Response{Results: []store.TaskHit{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: len(results), Query: q.Text}
}

// IndexTask pushes a task into the search index, fire-and-forget.
func (s *Service) IndexTask(record TaskRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTask(record); err != nil {
			log.Printf("search: index task %d: %v", record.ID, err)
		}
	}()
}

func nonNil(hits []store.TaskHit) []store.TaskHit {
	if hits == nil {
		return []store.TaskHit{}
	}
	return hits
}
