package search

import (
	"testing"
	"time"

	"bintobloom/internal/events"
)

func TestDocumentForKeepsOnlyCarriedFields(t *testing.T) {
	doc := documentFor(events.Event{Type: events.PickupStatusChanged, PickupID: "p1", Status: "PAID"})
	if len(doc) != 2 || doc["id"] != "p1" || doc["status"] != "PAID" {
		t.Fatalf("unexpected document %v", doc)
	}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	doc = documentFor(events.Event{Type: events.PickupCreated, PickupID: "p2", WasteType: "FOOD", City: "Pune", ScheduledAt: at})
	if doc["scheduled_at"] != at.Unix() || doc["city"] != "Pune" || doc["waste_type"] != "FOOD" {
		t.Fatalf("unexpected document %v", doc)
	}
}

func TestDocumentForRejectClearsCollector(t *testing.T) {
	doc := documentFor(events.Event{Type: events.PickupRejected, PickupID: "p1", Status: "PENDING"})
	if v, ok := doc["collector_id"]; !ok || v != "" {
		t.Fatalf("reject should blank collector_id, got %v", doc)
	}
}

func TestBuildFilter(t *testing.T) {
	cases := []struct {
		q    Query
		want string
	}{
		{Query{}, ""},
		{Query{Status: "PENDING"}, `status = "PENDING"`},
		{Query{Status: "PAID", City: "New Delhi"}, `status = "PAID" AND city = "New Delhi"`},
	}
	for _, tc := range cases {
		if got := buildFilter(tc.q); got != tc.want {
			t.Errorf("buildFilter(%+v) = %q, want %q", tc.q, got, tc.want)
		}
	}
}
