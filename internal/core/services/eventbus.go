package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
)

type EventType string

const (
	EventStageChanged       EventType = "stage_changed"
	EventCheckpointCreated  EventType = "checkpoint_created"
	EventCheckpointResolved EventType = "checkpoint_resolved"
	EventEmailSent          EventType = "email_sent"
	EventCampaignCompleted  EventType = "campaign_completed"
	EventCampaignFailed     EventType = "campaign_failed"
)

type Event struct {
	CampaignID domain.CampaignID
	Type       EventType
	Data       string // JSON payload
	Timestamp  int64
}

// EventBus fans campaign lifecycle events out to per-campaign
// subscribers (the SSE endpoint, mostly).
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.CampaignID][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.CampaignID][]chan Event),
	}
}

// Subscribe returns a channel receiving events for one campaign and an
// unsubscribe function that closes it.
func (b *EventBus) Subscribe(id domain.CampaignID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // buffered so publishers never block
	b.subs[id] = append(b.subs[id], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[id]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[id] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[id]) == 0 {
			delete(b.subs, id)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the campaign. Full
// channels drop the event rather than block a stage transition.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.CampaignID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "campaign_id", e.CampaignID)
		}
	}
}

// Emit marshals data and publishes it as a typed event.
func (b *EventBus) Emit(id domain.CampaignID, t EventType, data map[string]any) {
	if b == nil {
		return
	}
	payload, _ := json.Marshal(data)
	b.Publish(Event{
		CampaignID: id,
		Type:       t,
		Data:       string(payload),
		Timestamp:  time.Now().UnixMilli(),
	})
}
