package peerbroker

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/watchparty/server/pkg/rest"
)

const (
	defaultSendQueueSize = 64
	defaultSweepInterval = time.Second
)

type Config struct {
	Key string
	// AliveTimeout is how long a peer may stay silent before it is dropped.
	AliveTimeout time.Duration
	// ExpireTimeout is how long a message waits for an offline dst.
	ExpireTimeout  time.Duration
	AllowDiscovery bool
	SendQueueSize  int
	SweepInterval  time.Duration
}

type queuedMessage struct {
	msg Message
	at  time.Time
}

// Broker is a PeerJS compatible signaling server: it hands out peer ids and
// relays OFFER/ANSWER/CANDIDATE messages between peers by id.
type Broker struct {
	cfg      Config
	upgrader websocket.Upgrader
	router   chi.Router
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*client
	queues  map[string][]queuedMessage
}

func NewBroker(cfg *Config, logger *slog.Logger) *Broker {
	b := &Broker{
		cfg: *cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		logger:  logger.With("component", "peerbroker"),
		clients: make(map[string]*client),
		queues:  make(map[string][]queuedMessage),
	}
	if b.cfg.SendQueueSize <= 0 {
		b.cfg.SendQueueSize = defaultSendQueueSize
	}
	if b.cfg.SweepInterval <= 0 {
		b.cfg.SweepInterval = defaultSweepInterval
	}

	r := chi.NewRouter()
	r.Get("/peerjs", b.serveWs)
	r.Get("/{key}/id", b.generateId)
	r.Get("/{key}/peers", b.listPeers)
	b.router = r

	return b
}

func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// Run sweeps dead peers and expired messages until ctx is done, then closes
// every connection.
func (b *Broker) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *Broker) generateId(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "key") != b.cfg.Key {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(uuid.NewString()))
}

func (b *Broker) listPeers(w http.ResponseWriter, r *http.Request) {
	if !b.cfg.AllowDiscovery || chi.URLParam(r, "key") != b.cfg.Key {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	rest.WriteJSON(w, http.StatusOK, b.peerIds())
}

func (b *Broker) peerIds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := maps.Keys(b.clients)
	slices.Sort(ids)

	return ids
}

func (b *Broker) reject(conn *websocket.Conn, msg Message) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(msg)
	conn.Close()
}

func (b *Broker) serveWs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	key, id, token := query.Get("key"), query.Get("id"), query.Get("token")

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	if key == "" || id == "" || token == "" {
		b.reject(conn, newErrorMessage(Error, errMsgNoIdTokenKey))
		return
	}

	if key != b.cfg.Key {
		b.reject(conn, newErrorMessage(Error, errMsgInvalidKey))
		return
	}

	c, ok := b.register(id, token, conn)
	if !ok {
		b.reject(conn, newErrorMessage(IdTaken, errMsgIdTaken))
		return
	}
	defer b.unregister(c)

	b.logger.DebugContext(r.Context(), "peer connected", "peer_id", id)

	conn.SetReadLimit(maxMessageSize)
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				b.logger.DebugContext(r.Context(), "peer connection lost", "peer_id", id, "error", err)
			}
			return
		}

		if !b.handle(r.Context(), c, msg) {
			return
		}
	}
}

// register adds the peer, replacing a previous socket that presented the
// same token. OPEN and the messages queued for the id are put on the new
// client's queue before it becomes reachable, so later messages follow them.
func (b *Broker) register(id, token string, conn *websocket.Conn) (*client, bool) {
	b.mu.Lock()
	prev, exists := b.clients[id]
	if exists && prev.token != token {
		b.mu.Unlock()
		return nil, false
	}

	c := newClient(id, token, conn, b.cfg.SendQueueSize, b.logger)
	c.lastSeen = b.now()

	c.Send(Message{Type: Open})
	for _, q := range b.queues[id] {
		if !c.Send(q.msg) {
			b.logger.Warn("queued message dropped", "peer_id", id, "type", q.msg.Type)
		}
	}
	delete(b.queues, id)

	b.clients[id] = c
	b.mu.Unlock()

	if exists {
		prev.close()
	}

	go c.writePump()

	return c, true
}

func (b *Broker) unregister(c *client) {
	b.mu.Lock()
	if b.clients[c.id] == c {
		delete(b.clients, c.id)
	}
	b.mu.Unlock()

	c.close()
}

// handle processes one message from c and reports whether c stays connected.
func (b *Broker) handle(ctx context.Context, c *client, msg Message) bool {
	b.mu.Lock()
	c.lastSeen = b.now()
	b.mu.Unlock()

	switch {
	case msg.Type == Heartbeat:
		return true
	case msg.Type == Leave && msg.Dst == "":
		return false
	case relayed(msg.Type):
		msg.Src = c.id
		b.forward(ctx, msg)
		return true
	default:
		b.logger.WarnContext(ctx, "unsupported message type", "peer_id", c.id, "type", msg.Type)
		return true
	}
}

func (b *Broker) forward(ctx context.Context, msg Message) {
	b.mu.Lock()
	dst, ok := b.clients[msg.Dst]
	if !ok {
		if queueable(msg.Type) && msg.Dst != "" {
			b.queues[msg.Dst] = append(b.queues[msg.Dst], queuedMessage{msg: msg, at: b.now()})
		}
		b.mu.Unlock()
		b.logger.DebugContext(ctx, "dst not connected", "type", msg.Type, "src", msg.Src, "dst", msg.Dst)
		return
	}
	b.mu.Unlock()

	if !dst.Send(msg) {
		b.logger.WarnContext(ctx, "message dropped", "type", msg.Type, "src", msg.Src, "dst", msg.Dst)
	}
}

func (b *Broker) sweep() {
	now := b.now()

	var (
		stale   []*client
		expired []Message
	)

	b.mu.Lock()
	for id, c := range b.clients {
		if now.Sub(c.lastSeen) > b.cfg.AliveTimeout {
			stale = append(stale, c)
			delete(b.clients, id)
		}
	}

	for dst, queue := range b.queues {
		kept := queue[:0]
		for _, q := range queue {
			if now.Sub(q.at) > b.cfg.ExpireTimeout {
				expired = append(expired, Message{Type: Expire, Src: dst, Dst: q.msg.Src})
				continue
			}
			kept = append(kept, q)
		}

		if len(kept) == 0 {
			delete(b.queues, dst)
		} else {
			b.queues[dst] = kept
		}
	}
	b.mu.Unlock()

	for _, c := range stale {
		b.logger.Debug("peer timed out", "peer_id", c.id)
		c.close()
	}

	for _, msg := range expired {
		b.forward(context.Background(), msg)
	}
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[string]*client)
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
