package event

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types published by the cycle orchestrator.
const (
	CycleStarted    = "cycle.started"
	CycleCompleted  = "cycle.completed"
	CycleFailed     = "cycle.failed"
	ProspectCreated = "prospect.created"
	OutreachDrafted = "outreach.drafted"
)

// Event represents an internal event
type Event struct {
	Type      string         `json:"type"`
	TenantID  string         `json:"tenant_id"`
	Stage     string         `json:"stage,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Subscriber is a function that receives events
type Subscriber func(event *Event)

// Bus is an in-memory event bus for publishing events to subscribers.
// Channels are shared keys ("*", "tenant:{id}"), so each subscriber gets its
// own id and removal is per-subscriber, never channel-wide.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]Subscriber // channel → id → subscriber
	nextID      int
	logger      *zap.SugaredLogger
}

// NewBus creates a new event bus
func NewBus(logger *zap.SugaredLogger) *Bus {
	return &Bus{
		subscribers: make(map[string]map[int]Subscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for a channel and returns its id.
// channel can be "*" for all events, or "tenant:{id}" for a single tenant.
func (b *Bus) Subscribe(channel string, sub Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]Subscriber)
	}
	b.subscribers[channel][b.nextID] = sub
	return b.nextID
}

// Unsubscribe removes one subscriber from a channel
func (b *Bus) Unsubscribe(channel string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[channel]
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.subscribers, channel)
	}
}

// Publish sends an event to all matching subscribers
func (b *Bus) Publish(evt *Event) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	b.logger.Debugw("Publishing event",
		"type", evt.Type,
		"tenant_id", evt.TenantID,
		"stage", evt.Stage,
	)

	for _, sub := range b.subscribers["*"] {
		sub(evt)
	}

	if evt.TenantID != "" {
		for _, sub := range b.subscribers["tenant:"+evt.TenantID] {
			sub(evt)
		}
	}
}
