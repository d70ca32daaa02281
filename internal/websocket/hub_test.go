package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/model"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestAudience(t *testing.T) {
	owner := uuid.New()
	collector := uuid.New()
	e := events.Event{Type: events.PickupAssigned, UserID: owner.String(), CollectorID: collector.String()}

	cases := []struct {
		name  string
		actor service.Actor
		event events.Event
		want  bool
	}{
		{"admin", service.Actor{ID: uuid.New(), Role: model.RoleAdmin}, e, true},
		{"owner", service.Actor{ID: owner, Role: model.RoleHousehold}, e, true},
		{"assigned collector", service.Actor{ID: collector, Role: model.RoleCollector}, e, true},
		{"other household", service.Actor{ID: uuid.New(), Role: model.RoleHousehold}, e, false},
		{"other collector", service.Actor{ID: uuid.New(), Role: model.RoleCollector}, e, false},
		{"collector sees new pickups", service.Actor{ID: uuid.New(), Role: model.RoleCollector}, events.Event{Type: events.PickupCreated}, true},
		{"household misses new pickups", service.Actor{ID: uuid.New(), Role: model.RoleHousehold}, events.Event{Type: events.PickupCreated}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := audience(tc.actor, tc.event); got != tc.want {
				t.Fatalf("audience = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHubDeliversToOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	owner := service.Actor{ID: uuid.New(), Role: model.RoleHousehold}
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, owner) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	want := events.Event{Type: events.PickupCompleted, PickupID: uuid.NewString(), UserID: owner.ID.String(), Points: 4}
	// registration happens asynchronously; republish until the client sees it
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	done := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			done <- msg
		}
	}()
	for {
		if err := hub.Publish(ctx, want); err != nil {
			t.Fatal(err)
		}
		select {
		case msg := <-done:
			var got events.Event
			if err := json.Unmarshal(msg, &got); err != nil {
				t.Fatal(err)
			}
			if got.PickupID != want.PickupID || got.Points != 4 {
				t.Fatalf("got %+v", got)
			}
			return
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("event never delivered")
			}
		}
	}
}
