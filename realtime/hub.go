package realtime

import (
	"net/http"
	"sync"
	"time"

	"crm/middlewares"
	"crm/schemas"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	WRITE_TIMEOUT = 5 * time.Second
	SEND_BUFFER   = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client queues events for one connection. Only its writer goroutine
// writes to conn; the hub closes send when the client is dropped.
type client struct {
	conn *websocket.Conn
	send chan schemas.Event
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan schemas.Event, SEND_BUFFER)}
}

// Hub fans lifecycle events out to the websocket clients of each organization.
type Hub struct {
	auth    middlewares.Authenticator
	log     logrus.FieldLogger
	mu      sync.Mutex
	clients map[bson.ObjectID]map[*client]bool
}

func NewHub(auth middlewares.Authenticator, log logrus.FieldLogger) *Hub {
	return &Hub{
		auth:    auth,
		log:     log,
		clients: make(map[bson.ObjectID]map[*client]bool),
	}
}

// Publish queues ev for every client of the organization without waiting
// on the network. A client whose queue is full is dropped.
func (h *Hub) Publish(orgID bson.ObjectID, ev schemas.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[orgID] {
		select {
		case c.send <- ev:
		default:
			h.log.WithField("organization_id", orgID.Hex()).Debug("dropping slow websocket client")
			h.drop(orgID, c)
		}
	}
}

// writeLoop drains the client's queue until the hub closes it.
func (h *Hub) writeLoop(orgID bson.ObjectID, c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.log.WithError(err).WithField("organization_id", orgID.Hex()).Debug("dropping websocket client")
			h.remove(orgID, c)
			return
		}
	}
}

// Clients reports how many connections an organization has open.
func (h *Hub) Clients(orgID bson.ObjectID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[orgID])
}

func (h *Hub) add(orgID bson.ObjectID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[orgID] == nil {
		h.clients[orgID] = make(map[*client]bool)
	}
	h.clients[orgID][c] = true
}

func (h *Hub) remove(orgID bson.ObjectID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(orgID, c)
}

// drop unregisters c and closes its queue. h.mu must be held.
func (h *Hub) drop(orgID bson.ObjectID, c *client) {
	set, ok := h.clients[orgID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, orgID)
	}
	close(c.send)
}

// ServeHTTP upgrades an authenticated request and keeps the connection
// registered until the client goes away. The token is read from ?token=
// before the usual auth headers.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middlewares.TokenFromRequest(r)
	}
	actor, err := h.auth.Authenticate(token)
	if token == "" || err != nil {
		http.Error(w, "Token is not valid", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := newClient(conn)
	h.add(actor.OrganizationID, c)
	defer h.remove(actor.OrganizationID, c)
	go h.writeLoop(actor.OrganizationID, c)

	// Incoming frames are ignored; reading surfaces the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
