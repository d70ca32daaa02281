// Package search keeps a Meilisearch index of pickups in step with domain events.
package search

import (
	"context"
	"fmt"
	"strings"

	"bintobloom/internal/events"

	"github.com/meilisearch/meilisearch-go"
)

// Hit is one pickup document returned from the index.
type Hit struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CollectorID string `json:"collector_id"`
	Status      string `json:"status"`
	WasteType   string `json:"waste_type"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
	ScheduledAt int64  `json:"scheduled_at"`
}

// Query narrows a search. Empty fields are ignored.
type Query struct {
	Text   string
	Status string
	City   string
	Limit  int64
	Offset int64
}

type PickupIndex struct {
	client *meilisearch.Client
	index  string
}

func NewPickupIndex(host, apiKey, index string) *PickupIndex {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	return &PickupIndex{client: client, index: index}
}

// Init creates the index and declares searchable, filterable and sortable fields.
func (p *PickupIndex) Init() error {
	_, err := p.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        p.index,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return fmt.Errorf("create index %s: %w", p.index, err)
	}

	idx := p.client.Index(p.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{"waste_type", "notes", "city"}); err != nil {
		return err
	}
	if _, err := idx.UpdateFilterableAttributes(&[]string{"status", "city", "user_id", "collector_id", "waste_type"}); err != nil {
		return err
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"scheduled_at"}); err != nil {
		return err
	}
	return nil
}

// Publish applies a pickup event to the index. Non-pickup events are ignored.
func (p *PickupIndex) Publish(_ context.Context, e events.Event) error {
	if e.PickupID == "" {
		return nil
	}
	idx := p.client.Index(p.index)
	if e.Type == events.PickupDeleted {
		_, err := idx.DeleteDocument(e.PickupID)
		return err
	}
	_, err := idx.UpdateDocuments([]map[string]interface{}{documentFor(e)}, "id")
	return err
}

// documentFor keeps only the fields the event carries so a partial update never blanks others.
func documentFor(e events.Event) map[string]interface{} {
	doc := map[string]interface{}{"id": e.PickupID}
	set := func(k, v string) {
		if v != "" {
			doc[k] = v
		}
	}
	set("user_id", e.UserID)
	set("collector_id", e.CollectorID)
	set("status", e.Status)
	set("waste_type", e.WasteType)
	set("city", e.City)
	set("notes", e.Notes)
	if !e.ScheduledAt.IsZero() {
		doc["scheduled_at"] = e.ScheduledAt.Unix()
	}
	if e.Type == events.PickupRejected {
		doc["collector_id"] = ""
	}
	return doc
}

func (p *PickupIndex) Search(_ context.Context, q Query) ([]Hit, int64, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	req := &meilisearch.SearchRequest{
		Limit:  q.Limit,
		Offset: q.Offset,
		Sort:   []string{"scheduled_at:desc"},
	}
	if filter := buildFilter(q); filter != "" {
		req.Filter = filter
	}

	res, err := p.client.Index(p.index).Search(q.Text, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search pickups: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, raw := range res.Hits {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		h := Hit{
			ID:          getString(m, "id"),
			UserID:      getString(m, "user_id"),
			CollectorID: getString(m, "collector_id"),
			Status:      getString(m, "status"),
			WasteType:   getString(m, "waste_type"),
			City:        getString(m, "city"),
			Notes:       getString(m, "notes"),
		}
		if ts, ok := m["scheduled_at"].(float64); ok {
			h.ScheduledAt = int64(ts)
		}
		hits = append(hits, h)
	}
	return hits, res.EstimatedTotalHits, nil
}

func buildFilter(q Query) string {
	var parts []string
	if q.Status != "" {
		parts = append(parts, fmt.Sprintf("status = %q", q.Status))
	}
	if q.City != "" {
		parts = append(parts, fmt.Sprintf("city = %q", q.City))
	}
	return strings.Join(parts, " AND ")
}

func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
