package types

import "time"

// Role represents the author of a conversation item.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ValidRole reports whether r is one of the recognized roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ContentPartType identifies the kind of a content part.
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartAudio ContentPartType = "audio"
)

// ContentPart is one piece of an item's content. Text parts carry Text;
// audio parts carry Audio (PCM16 at the engine rate) plus the original
// wire format annotation.
type ContentPart struct {
	Type       ContentPartType `json:"type"`
	Text       string          `json:"text,omitempty"`
	Audio      []byte          `json:"audio,omitempty"`
	Format     AudioFormat     `json:"format,omitempty"`
	SampleRate int             `json:"sample_rate,omitempty"`
}

// ConversationItem is one turn in a session's history. Items are
// append-only and ordered by Position per session; the ordered history
// is the authoritative input to downstream inference.
type ConversationItem struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Role      Role          `json:"role"`
	Content   []ContentPart `json:"content"`
	Position  int64         `json:"position"`
	CreatedAt time.Time     `json:"created_at"`
}

// TextContent concatenates the item's text parts.
func (it ConversationItem) TextContent() string {
	var out string
	for _, p := range it.Content {
		if p.Type == ContentPartText {
			out += p.Text
		}
	}
	return out
}

// Clone returns a deep copy of the item so callers can never mutate
// stored history through a returned reference.
func (it ConversationItem) Clone() ConversationItem {
	out := it
	out.Content = make([]ContentPart, len(it.Content))
	for i, p := range it.Content {
		cp := p
		if p.Audio != nil {
			cp.Audio = append([]byte(nil), p.Audio...)
		}
		out.Content[i] = cp
	}
	return out
}
