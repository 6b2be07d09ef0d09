package search

import (
	"context"

	"github.com/sirupsen/logrus"

	"workshop/api/internal/workshop"
)

const (
	BackendMeili = "meilisearch"
	BackendScan  = "scan"
)

// Service is the facade that tries Meilisearch first and falls back to a
// repository scan.
type Service struct {
	meili   *Meili
	scanner *Scanner
	log     logrus.FieldLogger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, scanner *Scanner, log logrus.FieldLogger) *Service {
	return &Service{meili: meili, scanner: scanner, log: log.WithField("component", "search")}
}

// Search tries Meilisearch if healthy, otherwise scans the repository.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: BackendMeili}
		}
		s.log.WithError(err).Warn("meilisearch error, falling back to scan")
	}

	results, total, err := s.scanner.Search(ctx, q)
	if err != nil {
		s.log.WithError(err).Error("scan search failed")
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Backend: BackendScan}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: BackendScan}
}

// IndexSession pushes every item of session to Meilisearch (fire-and-forget).
func (s *Service) IndexSession(session *workshop.Session) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	records := Records(session)
	go func() {
		if err := s.meili.IndexItems(records); err != nil {
			s.log.WithError(err).WithField("session_id", session.ID).Warn("index session")
		}
	}()
}

// DeleteItem removes an item from the search index (fire-and-forget).
func (s *Service) DeleteItem(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteItem(id); err != nil {
			s.log.WithError(err).WithField("item_id", id).Warn("delete item")
		}
	}()
}

// ReindexAll reads every session from the repository and pushes its items
// to Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.scanner == nil {
		return
	}
	records, err := s.scanner.LoadAllRecords(ctx)
	if err != nil {
		s.log.WithError(err).Warn("reindex load failed")
		return
	}
	if err := s.meili.IndexItems(records); err != nil {
		s.log.WithError(err).Warn("reindex items")
		return
	}
	s.log.WithField("items", len(records)).Info("reindexed items")
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
