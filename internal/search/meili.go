package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"
)

const idxItems = "workshop_items"

// Meili indexes and searches items in Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	log     logrus.FieldLogger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the item index.
// An unreachable server is not an error: the health loop picks it up later.
func NewMeili(url, apiKey string, log logrus.FieldLogger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    log.WithField("component", "meilisearch"),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.log.WithError(err).Warnf("meilisearch unavailable at %s", url)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxItems,
		PrimaryKey: "id",
	}); err != nil {
		m.log.WithError(err).Debugf("create index %s (may already exist)", idxItems)
	}

	index := m.client.Index(idxItems)
	filterable := []interface{}{"sessionId", "phase", "moduleId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.WithError(err).Warn("update filterable attributes")
	}
	searchable := []string{"text", "boardName"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.WithError(err).Warn("update searchable attributes")
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	req := &meili.SearchRequest{
		Limit:                 int64(defaultLimit(q.Limit)),
		AttributesToHighlight: []string{"text"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}
	var filters []string
	if q.SessionID != "" {
		filters = append(filters, fmt.Sprintf("sessionId = %q", q.SessionID))
	}
	if q.Phase != "" {
		filters = append(filters, fmt.Sprintf("phase = %q", q.Phase))
	}
	if len(filters) > 0 {
		req.Filter = filters
	}

	resp, err := m.client.Index(idxItems).Search(q.Text, req)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{
		ItemID:    decodeString(hit, "id"),
		SessionID: decodeString(hit, "sessionId"),
		BoardName: decodeString(hit, "boardName"),
		Phase:     decodeString(hit, "phase"),
		ModuleID:  decodeString(hit, "moduleId"),
		Text:      decodeString(hit, "text"),
	}
	r.Snippet = decodeFormattedString(hit, "text")
	if r.Snippet == "" {
		r.Snippet = r.Text
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// IndexItems adds or updates items in the index.
func (m *Meili) IndexItems(records []ItemRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxItems).AddDocuments(records, nil)
	return err
}

// DeleteItem removes an item from the index.
func (m *Meili) DeleteItem(id string) error {
	_, err := m.client.Index(idxItems).DeleteDocument(id, nil)
	return err
}
