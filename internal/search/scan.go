package search

import (
	"context"
	"fmt"
	"strings"

	"workshop/api/internal/store"
)

// Scanner answers queries by walking every stored session. It is the
// fallback when Meilisearch is not configured or unhealthy.
type Scanner struct {
	repo store.Repository
}

func NewScanner(repo store.Repository) *Scanner {
	return &Scanner{repo: repo}
}

// Search matches q.Text as a case-insensitive substring of item texts.
// Results follow session order, newest first, then item order.
func (s *Scanner) Search(ctx context.Context, q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return []Result{}, 0, nil
	}
	limit := defaultLimit(q.Limit)

	var sessions []string
	if q.SessionID != "" {
		sessions = []string{q.SessionID}
	}
	records, err := s.records(ctx, sessions)
	if err != nil {
		return nil, 0, err
	}

	results := []Result{}
	total := 0
	for _, record := range records {
		if q.Phase != "" && record.Phase != q.Phase {
			continue
		}
		lowered := strings.ToLower(record.Text)
		at := strings.Index(lowered, needle)
		if at < 0 {
			continue
		}
		total++
		if len(results) >= limit {
			continue
		}
		results = append(results, Result{
			ItemID:    record.ID,
			SessionID: record.SessionID,
			BoardName: record.BoardName,
			Phase:     record.Phase,
			ModuleID:  record.ModuleID,
			Text:      record.Text,
			Snippet:   highlight(record.Text, at, len(needle)),
		})
	}
	return results, total, nil
}

// LoadAllRecords returns every indexable item in the repository.
func (s *Scanner) LoadAllRecords(ctx context.Context) ([]ItemRecord, error) {
	return s.records(ctx, nil)
}

func (s *Scanner) records(ctx context.Context, sessionIDs []string) ([]ItemRecord, error) {
	if len(sessionIDs) > 0 {
		var out []ItemRecord
		for _, id := range sessionIDs {
			session, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load session %s: %w", id, err)
			}
			out = append(out, Records(session)...)
		}
		return out, nil
	}
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []ItemRecord
	for _, session := range sessions {
		out = append(out, Records(session)...)
	}
	return out, nil
}

// highlight wraps the match in <mark> tags. Offsets come from the lowered
// text, so fall back to the plain text if lowering changed byte lengths.
func highlight(text string, at, n int) string {
	if len(strings.ToLower(text)) != len(text) || at+n > len(text) {
		return text
	}
	return text[:at] + "<mark>" + text[at:at+n] + "</mark>" + text[at+n:]
}
