package services

import (
	"testing"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEventBus_PubSub(t *testing.T) {
	bus := NewEventBus(testLogger())

	id := domain.CampaignID("campaign-123")

	// 1. Subscribe
	ch, unsub := bus.Subscribe(id)
	defer unsub()

	// 2. Publish
	event := Event{
		CampaignID: id,
		Type:       EventStageChanged,
		Data:       `{"stage":"planning"}`,
		Timestamp:  time.Now().UnixMilli(),
	}
	bus.Publish(event)

	// 3. Verify
	select {
	case received := <-ch:
		assert.Equal(t, event.CampaignID, received.CampaignID)
		assert.Equal(t, event.Data, received.Data)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(testLogger())
	id := domain.CampaignID("campaign-456")

	ch, unsub := bus.Subscribe(id)
	unsub()

	bus.Publish(Event{CampaignID: id, Type: EventEmailSent, Data: "should not receive"})

	select {
	case e, ok := <-ch:
		if ok {
			t.Fatalf("received event after unsubscribe: %v", e)
		}
		// channel closed by unsubscribe, as expected
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBus_EmitMarshalsData(t *testing.T) {
	bus := NewEventBus(testLogger())
	id := domain.CampaignID("campaign-789")

	ch, unsub := bus.Subscribe(id)
	defer unsub()

	bus.Emit(id, EventCheckpointCreated, map[string]any{"kind": "plan_approval"})

	select {
	case received := <-ch:
		assert.Equal(t, EventCheckpointCreated, received.Type)
		assert.JSONEq(t, `{"kind":"plan_approval"}`, received.Data)
		assert.NotZero(t, received.Timestamp)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_NilSafeEmit(t *testing.T) {
	var bus *EventBus
	// Emitting on a nil bus is a no-op, not a panic
	bus.Emit(domain.CampaignID("x"), EventCampaignFailed, nil)
}
