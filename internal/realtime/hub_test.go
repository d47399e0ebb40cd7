package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, h *Hub) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type       MessageType     `json:"type"`
	Collection string          `json:"collection"`
	Data       json.RawMessage `json:"data"`
}

func next(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m received
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m.Type == TypeHeartbeat {
			continue
		}
		return m
	}
}

func newTestHub() (*Hub, *atomic.Int32) {
	h := NewHub(func(token string) bool { return token == "good" })
	var tablesVersion atomic.Int32
	h.Register("users", false, func(context.Context) (any, error) {
		return []string{"Admin", "Juan"}, nil
	})
	h.Register("broken", true, func(context.Context) (any, error) {
		return nil, errors.New("store down")
	})
	h.Register("tables", true, func(context.Context) (any, error) {
		return map[string]int32{"version": tablesVersion.Load()}, nil
	})
	return h, &tablesVersion
}

func TestInitialSnapshotsRespectToken(t *testing.T) {
	h, _ := newTestHub()
	url := startHub(t, h)

	anon := dial(t, url)
	if m := next(t, anon); m.Collection != "users" || m.Type != TypeSnapshot {
		t.Fatalf("anonymous first message = %+v", m)
	}

	authed := dial(t, url+"?token=good")
	first := next(t, authed)
	second := next(t, authed)
	if first.Collection != "users" || second.Collection != "tables" {
		t.Fatalf("authorized snapshots = %s, %s", first.Collection, second.Collection)
	}

	// the anonymous client must not see the protected publish
	h.Publish("tables")
	if m := next(t, authed); m.Collection != "tables" {
		t.Fatalf("authorized got %+v", m)
	}
	h.Publish("users")
	if m := next(t, anon); m.Collection != "users" {
		t.Fatalf("anonymous got %+v, want only public collections", m)
	}
}

func TestPublishSendsFreshMembership(t *testing.T) {
	h, version := newTestHub()
	url := startHub(t, h)

	conn := dial(t, url+"?token=good")
	next(t, conn) // users
	next(t, conn) // tables

	version.Store(7)
	h.Publish("tables")

	m := next(t, conn)
	var data map[string]int32
	if err := json.Unmarshal(m.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if m.Collection != "tables" || data["version"] != 7 {
		t.Fatalf("message = %s %v", m.Collection, data)
	}
}

func TestBilliardTicks(t *testing.T) {
	h, _ := newTestHub()
	h.SetTickSource(func(context.Context) ([]any, error) {
		return []any{map[string]string{"table_id": "t1", "display": "00:59:59"}}, nil
	}, 20*time.Millisecond)
	url := startHub(t, h)

	conn := dial(t, url+"?token=good")
	for i := 0; i < 5; i++ {
		if m := next(t, conn); m.Type == TypeBilliardClock {
			return
		}
	}
	t.Fatalf("no billiard_clock message received")
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	h, _ := newTestHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish("tables")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked without a running hub")
	}
}

func TestChangeDuringConnectReachesNewClient(t *testing.T) {
	h := NewHub(func(token string) bool { return token == "good" })
	var version, loads atomic.Int32
	h.Register("tables", true, func(context.Context) (any, error) {
		v := version.Load()
		// a table is closed right after the connect read its snapshot
		if loads.Add(1) == 1 {
			version.Store(v + 1)
			h.Publish("tables")
		}
		return map[string]int32{"version": v}, nil
	})
	url := startHub(t, h)

	conn := dial(t, url+"?token=good")
	for i := 0; i < 3; i++ {
		m := next(t, conn)
		var data map[string]int32
		if err := json.Unmarshal(m.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if m.Collection == "tables" && data["version"] == 1 {
			return
		}
	}
	t.Fatalf("client never received the change made while it was connecting")
}
