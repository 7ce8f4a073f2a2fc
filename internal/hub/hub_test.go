package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastFansOutToTopicOnly(t *testing.T) {
	h := NewHub()

	a := h.Subscribe(MatchTopic(1))
	b := h.Subscribe(MatchTopic(1))
	other := h.Subscribe(MatchTopic(2))

	h.Broadcast(MatchTopic(1), Event{Type: "score_update", Payload: map[string]int{"score": 42}})

	for _, c := range []Client{a, b} {
		select {
		case raw := <-c:
			var ev Event
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, "score_update", ev.Type)
		default:
			t.Fatal("expected event on subscribed client")
		}
	}

	select {
	case <-other:
		t.Fatal("client on another topic must not receive the event")
	default:
	}
}

func TestUnsubscribeClosesClientAndDropsEmptyTopic(t *testing.T) {
	h := NewHub()
	c := h.Subscribe("match:9")
	assert.Equal(t, 1, h.SubscriberCount("match:9"))

	h.Unsubscribe("match:9", c)
	_, open := <-c
	assert.False(t, open, "channel must be closed on unsubscribe")
	assert.Equal(t, 0, h.SubscriberCount("match:9"))

	// Unsubscribing twice is harmless.
	h.Unsubscribe("match:9", c)
}

func TestBroadcastNeverBlocksOnSlowClient(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe("match:3")

	// Fill the client's buffer and keep broadcasting; the hub must not block.
	for i := 0; i < cap(slow)+10; i++ {
		h.Broadcast("match:3", Event{Type: "heartbeat"})
	}
	assert.Equal(t, cap(slow), len(slow))
}
