package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/datatypes"
)

func newHubServer(t *testing.T, origins []string) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(origins)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/activity", hub.ServeWs)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/activity"
}

func TestHubDeliversActivity(t *testing.T) {
	hub, url := newHubServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// registration is asynchronous; keep publishing until the first event lands
	entry := models.ActivityLog{ID: 7, Action: "wati_getContacts", Details: datatypes.JSON(`{"status":200}`)}
	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-received:
			var event struct {
				Type string             `json:"type"`
				Data models.ActivityLog `json:"data"`
			}
			if err := json.Unmarshal(msg, &event); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if event.Type != "activity_log" || event.Data.ID != 7 || event.Data.Action != "wati_getContacts" {
				t.Errorf("unexpected event %+v", event)
			}
			return
		case <-ticker.C:
			hub.NotifyActivity(entry)
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	_, url := newHubServer(t, []string{"https://app.example.com"})

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected handshake failure")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	header.Set("Origin", "https://app.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("allowed origin rejected: %v", err)
	}
	conn.Close()
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.NotifyActivity(models.ActivityLog{ID: uint(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked without a running hub")
	}
}
