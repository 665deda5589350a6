package supabase

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TableGalleryItems = "gallery_items"
	TableOrders       = "orders"
	TableFCMTokens    = "fcm_tokens"

	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent mirrors a Postgres change notification: which table, what kind
// of write and which row. Listeners re-fetch on any event.
type ChangeEvent struct {
	Table     string                 `json:"table"`
	Type      string                 `json:"type"`
	ID        string                 `json:"id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// RealtimeClient fans change events out to in-process subscribers such as
// open admin sessions.
type RealtimeClient struct {
	mu     sync.RWMutex
	subs   map[int]chan ChangeEvent
	nextID int
	buffer int
}

func NewRealtimeClient() *RealtimeClient {
	return &RealtimeClient{
		subs:   make(map[int]chan ChangeEvent),
		buffer: 16,
	}
}

// Subscribe returns a channel of events and a function that releases it.
func (r *RealtimeClient) Subscribe() (<-chan ChangeEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan ChangeEvent, r.buffer)
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (r *RealtimeClient) Publish(event ChangeEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (r *RealtimeClient) PublishChange(table, eventType string, id uuid.UUID, payload map[string]interface{}) {
	r.Publish(ChangeEvent{
		Table:   table,
		Type:    eventType,
		ID:      id.String(),
		Payload: payload,
	})
}

func (r *RealtimeClient) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Event payloads

func OrderStatusPayload(from, to string) map[string]interface{} {
	return map[string]interface{}{
		"old_status": from,
		"status":     to,
	}
}

func GalleryItemPayload(title, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"title":     title,
		"image_url": imageURL,
	}
}
