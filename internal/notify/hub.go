package notify

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// Message is the wire form of a delivered event.
type Message struct {
	Event   string       `json:"event"`
	Payload domain.Event `json:"payload"`
}

// Presence marks user connectivity in a shared store (best-effort, optional).
type Presence interface {
	Connected(userID string)
	Disconnected(userID string)
}

// Client is one connected session. Events arrive on Receive in emission
// order; a slow consumer loses its oldest undelivered message rather than
// blocking the emitting operation.
type Client struct {
	userID string
	send   chan Message
	rooms  map[string]struct{}
}

// Receive returns the client's event stream. Closed on unregister.
func (c *Client) Receive() <-chan Message {
	return c.send
}

// UserID returns the user this session belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// Hub routes events to connected sessions by user id and by room. Delivery
// is fire-and-forget: a target with no connected session is silently
// skipped. The hub never persists or replays events.
type Hub struct {
	mu       sync.RWMutex
	users    map[string]map[*Client]struct{}
	rooms    map[string]map[*Client]struct{}
	presence Presence
	log      *logrus.Entry
}

// NewHub builds a hub. presence may be nil.
func NewHub(presence Presence) *Hub {
	return &Hub{
		users:    make(map[string]map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: presence,
		log:      logrus.WithField("component", "notify"),
	}
}

// Register attaches a new session for userID. The caller must invoke the
// returned cancel function to avoid leaks.
func (h *Hub) Register(userID string) (*Client, func()) {
	client := &Client{
		userID: userID,
		send:   make(chan Message, 16),
		rooms:  make(map[string]struct{}),
	}

	h.mu.Lock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][client] = struct{}{}
	h.mu.Unlock()

	if h.presence != nil {
		h.presence.Connected(userID)
	}

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.users[userID]; ok {
			if _, live := set[client]; live {
				delete(set, client)
				if len(set) == 0 {
					delete(h.users, userID)
				}
				for room := range client.rooms {
					h.leaveRoomLocked(client, room)
				}
				close(client.send)
			}
		}
		h.mu.Unlock()
		if h.presence != nil {
			h.presence.Disconnected(userID)
		}
	}
	return client, cancel
}

// JoinRoom adds the session to a room.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
}

// LeaveRoom removes the session from a room.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(client, room)
}

func (h *Hub) leaveRoomLocked(client *Client, room string) {
	delete(client.rooms, room)
	if set, ok := h.rooms[room]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// EmitToUser delivers an event to every connected session of one user.
func (h *Hub) EmitToUser(userID string, ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.users[userID] {
		deliver(client, ev)
	}
}

// EmitToUsers delivers an event to several users.
func (h *Hub) EmitToUsers(userIDs []string, ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for client := range h.users[userID] {
			deliver(client, ev)
		}
	}
}

// EmitToRoom delivers an event to every session currently in the room.
func (h *Hub) EmitToRoom(room string, ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		deliver(client, ev)
	}
}

// deliver pushes without blocking; when the client's buffer is full the
// oldest undelivered message is dropped so one slow socket cannot stall an
// emitting state-machine operation.
func deliver(client *Client, ev domain.Event) {
	msg := Message{Event: ev.EventName(), Payload: ev}
	select {
	case client.send <- msg:
	default:
		select {
		case <-client.send:
		default:
		}
		select {
		case client.send <- msg:
		default:
		}
	}
}
