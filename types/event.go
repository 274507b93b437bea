package types

import (
	"encoding/json"
	"fmt"
)

// EventType names a realtime protocol event.
type EventType string

// Client-originated events.
const (
	EventSessionUpdate          EventType = "session.update"
	EventConversationItemCreate EventType = "conversation.item.create"
	EventResponseCreate         EventType = "response.create"
	EventInputAudioAppend       EventType = "input_audio_buffer.append"
	EventInputAudioCommit       EventType = "input_audio_buffer.commit"
	EventInputAudioClear        EventType = "input_audio_buffer.clear"
)

// Server-originated events.
const (
	EventSessionCreated          EventType = "session.created"
	EventSessionUpdated          EventType = "session.updated"
	EventConversationItemCreated EventType = "conversation.item.created"
	EventResponseCreated         EventType = "response.created"
	EventResponseTextDelta       EventType = "response.text.delta"
	EventResponseAudioDelta      EventType = "response.audio.delta"
	EventResponseDone            EventType = "response.done"
	EventRateLimitsUpdated       EventType = "rate_limits.updated"
	EventInputAudioCommitted     EventType = "input_audio_buffer.committed"
	EventInputAudioCleared       EventType = "input_audio_buffer.cleared"
	EventError                   EventType = "error"
)

// Response terminal statuses carried on response.done.
const (
	ResponseStatusCompleted = "completed"
	ResponseStatusFailed    = "failed"
)

// Event is the framed JSON envelope exchanged on the realtime channel.
// Unused fields are omitted on the wire; which fields are populated is
// determined by Type.
type Event struct {
	Type       EventType         `json:"type"`
	EventID    string            `json:"event_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Session    *SessionConfig    `json:"session,omitempty"`
	Item       *ConversationItem `json:"item,omitempty"`
	ResponseID string            `json:"response_id,omitempty"`
	ItemID     string            `json:"item_id,omitempty"`
	Delta      string            `json:"delta,omitempty"`
	Audio      string            `json:"audio,omitempty"`
	Status     string            `json:"status,omitempty"`
	Usage      *TokenUsage       `json:"usage,omitempty"`
	RateLimits *RateLimitStatus  `json:"rate_limits,omitempty"`
	Error      *Error            `json:"error,omitempty"`
}

// clientEvents is the set of event types a client may send.
var clientEvents = map[EventType]struct{}{
	EventSessionUpdate:          {},
	EventConversationItemCreate: {},
	EventResponseCreate:         {},
	EventInputAudioAppend:       {},
	EventInputAudioCommit:       {},
	EventInputAudioClear:        {},
}

// DecodeClientEvent parses and shape-validates one inbound frame.
// Any failure is a MALFORMED_EVENT error naming the offending field;
// the payload is never partially applied.
func DecodeClientEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, NewMalformedEventError("", "event is not valid JSON").WithCause(err)
	}
	if ev.Type == "" {
		return Event{}, NewMalformedEventError("type", "missing event type")
	}
	if _, ok := clientEvents[ev.Type]; !ok {
		return Event{}, NewMalformedEventError("type", fmt.Sprintf("unknown event type: %s", ev.Type))
	}

	switch ev.Type {
	case EventSessionUpdate:
		if ev.Session == nil {
			return Event{}, NewMalformedEventError("session", "session.update requires a session payload")
		}
	case EventConversationItemCreate:
		if ev.Item == nil {
			return Event{}, NewMalformedEventError("item", "conversation.item.create requires an item payload")
		}
		if !ValidRole(ev.Item.Role) {
			return Event{}, NewMalformedEventError("item.role", fmt.Sprintf("invalid role: %s", ev.Item.Role))
		}
		if len(ev.Item.Content) == 0 {
			return Event{}, NewMalformedEventError("item.content", "item content must not be empty")
		}
	case EventInputAudioAppend:
		if ev.Audio == "" {
			return Event{}, NewMalformedEventError("audio", "input_audio_buffer.append requires audio data")
		}
	}
	return ev, nil
}

// ErrorEvent wraps a structured error into an outbound error event.
func ErrorEvent(err *Error) Event {
	return Event{Type: EventError, Error: err}
}
