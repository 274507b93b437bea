package inference

import (
	"context"

	"github.com/BaSui01/voicegate/types"
)

// Request is one response-generation call. History is the session's
// authoritative conversation record in append order.
type Request struct {
	SessionID    string
	Model        string
	Instructions string
	Voice        string
	Modalities   []types.Modality
	History      []types.ConversationItem
	// SampleRate is the engine-side PCM16 rate audio chunks must use.
	SampleRate int
}

// ToolCall is a tool invocation requested by the model mid-response.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Chunk is one partial result of a streamed response. Exactly one of
// Text, Audio, or ToolCall is set on a delta chunk; Usage arrives at
// most once, on the final chunk before the channel closes. Err marks a
// collaborator fault and terminates the stream.
type Chunk struct {
	Text     string
	Audio    []byte
	ToolCall *ToolCall
	Usage    *types.TokenUsage
	Err      error
}

// Responder streams a model response for a conversation history.
// Implementations must respect ctx cancellation and close the returned
// channel when the stream ends, fails, or is cancelled.
type Responder interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
	Name() string
}

// Transcriber converts audio to text (speech-to-text boundary).
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
	Name() string
}

// Synthesizer converts text to audio (text-to-speech boundary).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, sampleRate int) ([]byte, error)
	Name() string
}
