package inference

import (
	"context"
	"encoding/binary"
	"math"
	"strings"

	"github.com/BaSui01/voicegate/types"
)

// ScriptedResponder is a local, deterministic Responder used for
// development and tests. It echoes the last user turn back in small
// text deltas and, when the audio modality is requested, emits a short
// synthesized tone as PCM16 chunks.
type ScriptedResponder struct {
	// Reply overrides the echoed text when non-empty.
	Reply string
	// ChunkRunes controls text delta granularity.
	ChunkRunes int
	// ToneFrames controls how many PCM16 frames of audio to emit.
	ToneFrames int
}

// NewScriptedResponder returns a ScriptedResponder with usable defaults.
func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{ChunkRunes: 8, ToneFrames: 480}
}

// Name implements Responder.
func (s *ScriptedResponder) Name() string { return "scripted" }

// Stream implements Responder.
func (s *ScriptedResponder) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	reply := s.Reply
	if reply == "" {
		reply = "You said: " + lastUserText(req.History)
	}
	chunkRunes := s.ChunkRunes
	if chunkRunes <= 0 {
		chunkRunes = 8
	}

	out := make(chan Chunk, 8)
	go func() {
		defer close(out)

		wantText := hasModality(req.Modalities, types.ModalityText)
		wantAudio := hasModality(req.Modalities, types.ModalityAudio)
		if !wantText && !wantAudio {
			wantText = true
		}

		if wantText {
			runes := []rune(reply)
			for i := 0; i < len(runes); i += chunkRunes {
				end := i + chunkRunes
				if end > len(runes) {
					end = len(runes)
				}
				if !send(ctx, out, Chunk{Text: string(runes[i:end])}) {
					return
				}
			}
		}

		if wantAudio {
			if !send(ctx, out, Chunk{Audio: s.tone(req.SampleRate)}) {
				return
			}
		}

		usage := &types.TokenUsage{
			PromptTokens:     estimateTokens(historyText(req.History)),
			CompletionTokens: estimateTokens(reply),
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		send(ctx, out, Chunk{Usage: usage})
	}()
	return out, nil
}

// tone renders a 440Hz sine burst so audio consumers get a non-silent,
// deterministic signal.
func (s *ScriptedResponder) tone(sampleRate int) []byte {
	frames := s.ToneFrames
	if frames <= 0 {
		frames = 480
	}
	if sampleRate <= 0 {
		sampleRate = types.DefaultSampleRate
	}
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func send(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func hasModality(mods []types.Modality, m types.Modality) bool {
	for _, mod := range mods {
		if mod == m {
			return true
		}
	}
	return false
}

func lastUserText(history []types.ConversationItem) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == types.RoleUser {
			if text := history[i].TextContent(); text != "" {
				return text
			}
			return "(audio)"
		}
	}
	return "nothing yet"
}

func historyText(history []types.ConversationItem) string {
	var b strings.Builder
	for _, item := range history {
		b.WriteString(item.TextContent())
		b.WriteByte(' ')
	}
	return b.String()
}

// estimateTokens is a rough chars/4 fallback; precise accounting
// happens in the tokenizer package when a model encoding is known.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
