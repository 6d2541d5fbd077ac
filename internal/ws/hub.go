package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

// Hub fans attendance events out to the clients watching a subject
type Hub struct {
	clients    map[*Client]bool
	subjects   map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		subjects:   make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.broadcastToSubject(event)
		}
	}
}

// join registers client; it reports false once the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.subjects[client.subjectID] == nil {
		h.subjects[client.subjectID] = make(map[*Client]bool)
	}
	h.subjects[client.subjectID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		h.drop(client)
	}
}

// drop must be called with mu held
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	delete(h.subjects[client.subjectID], client)

	if len(h.subjects[client.subjectID]) == 0 {
		delete(h.subjects, client.subjectID)
	}

	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.drop(client)
	}
}

func (h *Hub) broadcastToSubject(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.subjects[event.SubjectID] {
		select {
		case client.send <- message:
		default:
			// slow consumer
			h.drop(client)
		}
	}
}

// BroadcastToSubject queues an event without blocking; it is dropped when the queue is full
func (h *Hub) BroadcastToSubject(subjectID string, eventType EventType, data interface{}) {
	event := Event{
		SubjectID: subjectID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

// PublishAttendance pushes a freshly recorded row to the subject's viewers.
// Subjects nobody is watching are skipped so marks never fill the queue.
func (h *Hub) PublishAttendance(subjectID string, record domain.AttendanceRecord) {
	if h.GetConnectedClients(subjectID) == 0 {
		return
	}
	h.BroadcastToSubject(subjectID, EventAttendanceMarked, record)
}

func (h *Hub) GetConnectedClients(subjectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subjects[subjectID])
}
