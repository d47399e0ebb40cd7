package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type MessageType string

const (
	TypeSnapshot      MessageType = "snapshot"
	TypeBilliardClock MessageType = "billiard_clock"
	TypeHeartbeat     MessageType = "heartbeat"
)

// Message is what every client receives. A snapshot carries the full
// current membership of one collection.
type Message struct {
	Type       MessageType `json:"type"`
	Collection string      `json:"collection,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
}

// Loader reads the current content of a collection.
type Loader func(ctx context.Context) (any, error)

// TickSource returns one payload per billiard table currently running.
type TickSource func(ctx context.Context) ([]any, error)

// Authorizer validates the token a client connected with.
type Authorizer func(token string) bool

type collection struct {
	load      Loader
	protected bool
}

type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	Authorized  bool
	ConnectedAt time.Time
	hub         *Hub
}

type outbound struct {
	payload   []byte
	protected bool
	target    string // client id; empty means every client
}

// Hub pushes collection snapshots to connected clients. Services call
// Publish after a mutation; the hub reloads the collection and broadcasts
// it. Loads are coalesced, so a burst of mutations costs one reload.
// Initial snapshots of a new client go through the same loop, after the
// client is registered, so no publish can fall between the two.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	mu         sync.RWMutex

	collections map[string]collection
	order       []string
	authorize   Authorizer
	ticks       TickSource
	tickEvery   time.Duration

	dirtyMu sync.Mutex
	dirty   map[string]bool
	joins   []*Client
	wake    chan struct{}

	upgrader websocket.Upgrader
}

func NewHub(authorize Authorizer) *Hub {
	if authorize == nil {
		authorize = func(string) bool { return false }
	}
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan outbound, 64),
		done:        make(chan struct{}),
		collections: make(map[string]collection),
		authorize:   authorize,
		tickEvery:   time.Second,
		dirty:       make(map[string]bool),
		wake:        make(chan struct{}, 1),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Register adds a collection. Protected collections are only sent to
// clients that connected with a valid token. Call before Run.
func (h *Hub) Register(name string, protected bool, load Loader) {
	if _, ok := h.collections[name]; !ok {
		h.order = append(h.order, name)
	}
	h.collections[name] = collection{load: load, protected: protected}
}

// SetTickSource enables the billiard clock push. Ticks are protected.
func (h *Hub) SetTickSource(src TickSource, every time.Duration) {
	h.ticks = src
	if every > 0 {
		h.tickEvery = every
	}
}

// Publish marks a collection as changed. It never blocks.
func (h *Hub) Publish(name string) {
	h.dirtyMu.Lock()
	h.dirty[name] = true
	h.dirtyMu.Unlock()
	h.signal()
}

// join queues the initial snapshots of a registered client.
func (h *Hub) join(c *Client) {
	h.dirtyMu.Lock()
	h.joins = append(h.joins, c)
	h.dirtyMu.Unlock()
	h.signal()
}

func (h *Hub) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run drives the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	go h.refreshLoop(ctx)
	go h.tickLoop(ctx)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("[WS] cliente conectado: %s (autorizado: %t)", client.ID, client.Authorized)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				log.Printf("[WS] cliente desconectado: %s", client.ID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-heartbeat.C:
			if payload, err := encode(Message{Type: TypeHeartbeat, Timestamp: time.Now().UTC()}); err == nil {
				h.deliver(outbound{payload: payload})
			}
		}
	}
}

func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if msg.target != "" && id != msg.target {
			continue
		}
		if msg.protected && !client.Authorized {
			continue
		}
		select {
		case client.Send <- msg.payload:
		default:
			// slow client: drop it rather than stall everyone
			delete(h.clients, id)
			close(client.Send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
}

func (h *Hub) refreshLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
		}

		h.dirtyMu.Lock()
		names := make([]string, 0, len(h.dirty))
		for name := range h.dirty {
			names = append(names, name)
		}
		h.dirty = make(map[string]bool)
		joins := h.joins
		h.joins = nil
		h.dirtyMu.Unlock()
		sort.Strings(names)

		if !h.sendInitial(ctx, joins) {
			return
		}

		for _, name := range names {
			msg, protected, err := h.snapshot(ctx, name)
			if err != nil {
				// the collection stays stale until its next change
				log.Printf("[WARN] realtime: no se pudo recargar %s: %v", name, err)
				continue
			}
			select {
			case h.broadcast <- outbound{payload: msg, protected: protected}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sendInitial loads each collection once for the whole batch of new
// clients and queues it to every client allowed to read it.
func (h *Hub) sendInitial(ctx context.Context, joins []*Client) bool {
	if len(joins) == 0 {
		return true
	}
	loaded := make(map[string][]byte, len(h.order))
	for _, name := range h.order {
		msg, _, err := h.snapshot(ctx, name)
		if err != nil {
			log.Printf("[WARN] realtime: snapshot inicial de %s falló: %v", name, err)
			continue
		}
		loaded[name] = msg
	}

	for _, c := range joins {
		for _, name := range h.order {
			msg, ok := loaded[name]
			if !ok || h.collections[name].protected && !c.Authorized {
				continue
			}
			select {
			case h.broadcast <- outbound{payload: msg, target: c.ID}:
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}

func (h *Hub) tickLoop(ctx context.Context) {
	if h.ticks == nil {
		return
	}
	ticker := time.NewTicker(h.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if h.ClientCount() == 0 {
			continue
		}

		payloads, err := h.ticks(ctx)
		if err != nil {
			log.Printf("[WARN] realtime: reloj de billar: %v", err)
			continue
		}
		now := time.Now().UTC()
		for _, p := range payloads {
			msg, err := encode(Message{Type: TypeBilliardClock, Timestamp: now, Data: p})
			if err != nil {
				continue
			}
			select {
			case h.broadcast <- outbound{payload: msg, protected: true}:
			case <-ctx.Done():
				return
			}
		}
	}
}

var errUnknownCollection = errors.New("colección desconocida")

func (h *Hub) snapshot(ctx context.Context, name string) ([]byte, bool, error) {
	col, ok := h.collections[name]
	if !ok {
		return nil, false, errUnknownCollection
	}
	data, err := col.load(ctx)
	if err != nil {
		return nil, col.protected, err
	}
	msg, err := encode(Message{Type: TypeSnapshot, Collection: name, Timestamp: time.Now().UTC(), Data: data})
	return msg, col.protected, err
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// ServeHTTP upgrades /ws?token=... connections. A missing or invalid token
// still connects, but only to the public collections.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authorized := false
	if token := r.URL.Query().Get("token"); token != "" {
		authorized = h.authorize(token)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] error al actualizar la conexión: %v", err)
		return
	}

	client := &Client{
		ID:          uuid.NewString(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Authorized:  authorized,
		ConnectedAt: time.Now(),
		hub:         h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	h.join(client)

	go client.writePump()
	go client.readPump()
}

// Handler mounts the hub at /ws next to a small health check.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": h.ClientCount(),
		})
	})
	return mux
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// the feed is one-way; reads only keep the connection alive
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] error de lectura: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
