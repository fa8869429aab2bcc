package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TypeTaskCreated   Type = "task.created"
	TypeTaskUpdated   Type = "task.updated"
	TypeTasksReloaded Type = "tasks.reloaded"
)

// Event describes a task lifecycle change, fanned out to dashboard
// change feeds.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	OwnerID   string    `json:"ownerId"`
	TaskID    string    `json:"taskId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan Event) {
	id := ulid.Make().String()
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType Type, ownerID, taskID string) {
	b.Publish(Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		OwnerID:   ownerID,
		TaskID:    taskID,
		CreatedAt: time.Now(),
	})
}
