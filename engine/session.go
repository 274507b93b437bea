package engine

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/codec"
	"github.com/BaSui01/voicegate/tokenizer"
	"github.com/BaSui01/voicegate/types"
)

// session is the per-connection state owned by exactly one loop
// goroutine. No other goroutine ever touches it, which is what makes
// the ordering guarantees trivial to uphold.
type session struct {
	eng    *Engine
	conn   Conn
	id     string
	config types.SessionConfig
	status types.SessionStatus

	// inputBuffer accumulates committed-pending audio as PCM16 at the
	// session's input sample rate.
	inputBuffer []byte

	counter tokenizer.Counter
	logger  *zap.Logger
}

// HandleConnection drives one connection through its full lifecycle:
// secret redemption, session creation, the sequential event loop, and
// teardown. It returns when the peer disconnects, ctx is cancelled, or
// redemption fails. The connection is always closed on return.
func (e *Engine) HandleConnection(ctx context.Context, conn Conn, secret string) error {
	defer conn.Close()

	s, err := e.openSession(ctx, conn, secret)
	if err != nil {
		return err
	}
	defer e.closeSession(s)

	return s.loop(ctx)
}

// openSession redeems the secret and transitions the connection from
// AwaitingSecret to Active, emitting session.created and the initial
// rate_limits.updated. A redemption failure emits a single error event
// and ends the connection without creating any session state.
func (e *Engine) openSession(ctx context.Context, conn Conn, secret string) (*session, error) {
	if secret == "" {
		err := types.NewError(types.ErrMissingSecret, "No client secret was provided").WithHTTPStatus(401)
		e.writeRaw(ctx, conn, types.ErrorEvent(err))
		e.metrics.SecretRedeemed("missing")
		return nil, err
	}
	config, err := e.registry.Redeem(secret)
	if err != nil {
		e.metrics.SecretRedeemed("invalid")
		appErr, ok := types.AsError(err)
		if !ok {
			appErr = types.WrapError(types.ErrInternalError, "secret redemption failed", err)
		}
		e.writeRaw(ctx, conn, types.ErrorEvent(appErr))
		return nil, err
	}
	e.metrics.SecretRedeemed("ok")

	s := &session{
		eng:     e,
		conn:    conn,
		id:      "sess_" + uuid.NewString(),
		config:  config,
		status:  types.SessionStatusCreated,
		counter: tokenizer.ForModel(config.Model),
	}
	s.logger = e.logger.With(zap.String("session_id", s.id))

	if err := e.store.Register(ctx, s.id); err != nil {
		appErr := types.WrapError(types.ErrInternalError, "failed to register session", err)
		e.writeRaw(ctx, conn, types.ErrorEvent(appErr))
		return nil, err
	}

	e.metrics.SessionOpened()
	s.logger.Info("session created",
		zap.String("model", config.Model),
		zap.Strings("modalities", modalityStrings(config.OutputModalities)))

	// session.created must be the first event on the wire, followed by
	// the initial quota snapshot, before any client event is read.
	s.send(ctx, types.Event{
		Type:      types.EventSessionCreated,
		SessionID: s.id,
		Session:   &s.config,
	})
	s.sendRateLimits(ctx)

	s.status = types.SessionStatusActive
	return s, nil
}

func (e *Engine) closeSession(s *session) {
	s.status = types.SessionStatusClosed
	e.limiter.Release(s.id)
	e.metrics.SessionClosed()
	s.logger.Info("session closed")
}

// loop reads and handles client events strictly one at a time. Every
// event is fully processed, including all events it emits, before the
// next frame is read.
func (s *session) loop(ctx context.Context) error {
	for {
		data, err := s.conn.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			s.logger.Debug("connection read ended", zap.Error(err))
			return nil
		}

		ev, err := types.DecodeClientEvent(data)
		if err != nil {
			appErr, _ := types.AsError(err)
			s.send(ctx, types.ErrorEvent(appErr))
			continue
		}
		s.eng.metrics.EventInbound(string(ev.Type))

		if err := s.handle(ctx, ev); err != nil {
			// Handler errors are protocol errors reported to the
			// client; the session itself stays usable.
			appErr, ok := types.AsError(err)
			if !ok {
				appErr = types.WrapError(types.ErrInternalError, "event handling failed", err)
				s.logger.Error("internal handler failure", zap.Error(err))
			}
			s.send(ctx, types.ErrorEvent(appErr))
		}
	}
}

func (s *session) handle(ctx context.Context, ev types.Event) error {
	switch ev.Type {
	case types.EventSessionUpdate:
		return s.handleSessionUpdate(ctx, ev)
	case types.EventConversationItemCreate:
		return s.handleItemCreate(ctx, ev)
	case types.EventResponseCreate:
		return s.handleResponseCreate(ctx, ev)
	case types.EventInputAudioAppend:
		return s.handleAudioAppend(ctx, ev)
	case types.EventInputAudioCommit:
		return s.handleAudioCommit(ctx, ev)
	case types.EventInputAudioClear:
		return s.handleAudioClear(ctx)
	default:
		return types.NewMalformedEventError("type", "unhandled event type")
	}
}

// handleSessionUpdate merges the supplied fields over the current
// config. Omitted fields keep their value; the acknowledgement always
// carries the complete resolved config.
func (s *session) handleSessionUpdate(ctx context.Context, ev types.Event) error {
	s.config = s.config.Merge(*ev.Session)
	if s.config.Model != "" {
		s.counter = tokenizer.ForModel(s.config.Model)
	}
	s.logger.Debug("session config updated", zap.String("model", s.config.Model))
	s.send(ctx, types.Event{
		Type:      types.EventSessionUpdated,
		SessionID: s.id,
		Session:   &s.config,
	})
	return nil
}

// handleItemCreate appends a client-authored item to the history.
// Audio content parts arrive in the session's input format (the JSON
// layer has already unwrapped the base64) and are normalized to raw
// PCM16 before storage.
func (s *session) handleItemCreate(ctx context.Context, ev types.Event) error {
	item := ev.Item.Clone()
	item.SessionID = s.id
	for i, part := range item.Content {
		if part.Type != types.ContentPartAudio {
			continue
		}
		pcm, err := codec.Decode(s.config.InputAudioFormat, part.Audio)
		if err != nil {
			return err
		}
		item.Content[i].Audio = pcm
		item.Content[i].Format = types.AudioFormatPCM16
		item.Content[i].SampleRate = s.config.InputSampleRate
	}
	stored, err := s.eng.store.Append(ctx, s.id, item)
	if err != nil {
		return err
	}
	s.send(ctx, types.Event{
		Type:      types.EventConversationItemCreated,
		SessionID: s.id,
		Item:      &stored,
	})
	return nil
}

// handleAudioAppend decodes one frame and grows the pending input
// buffer. A frame that fails validation leaves the buffer untouched.
func (s *session) handleAudioAppend(ctx context.Context, ev types.Event) error {
	pcm, err := s.decodeInboundAudio([]byte(ev.Audio))
	if err != nil {
		return err
	}
	s.inputBuffer = append(s.inputBuffer, pcm...)
	s.eng.metrics.AudioTranscoded("inbound", len(pcm))
	return nil
}

// handleAudioCommit turns the pending buffer into a user item. An
// empty buffer is a no-op commit: acknowledged, nothing appended.
func (s *session) handleAudioCommit(ctx context.Context, ev types.Event) error {
	if len(s.inputBuffer) == 0 {
		s.send(ctx, types.Event{Type: types.EventInputAudioCommitted, SessionID: s.id})
		return nil
	}
	pcm := s.inputBuffer
	s.inputBuffer = nil

	content := []types.ContentPart{{
		Type:       types.ContentPartAudio,
		Audio:      pcm,
		Format:     types.AudioFormatPCM16,
		SampleRate: s.config.InputSampleRate,
	}}
	if s.eng.transcriber != nil {
		text, err := s.eng.transcriber.Transcribe(ctx, pcm, s.config.InputSampleRate)
		if err != nil {
			s.logger.Warn("transcription failed", zap.Error(err))
		} else if text != "" {
			content = append(content, types.ContentPart{Type: types.ContentPartText, Text: text})
		}
	}

	stored, err := s.eng.store.Append(ctx, s.id, types.ConversationItem{
		SessionID: s.id,
		Role:      types.RoleUser,
		Content:   content,
	})
	if err != nil {
		return err
	}
	s.send(ctx, types.Event{
		Type:      types.EventInputAudioCommitted,
		SessionID: s.id,
		ItemID:    stored.ID,
	})
	s.send(ctx, types.Event{
		Type:      types.EventConversationItemCreated,
		SessionID: s.id,
		Item:      &stored,
	})
	return nil
}

func (s *session) handleAudioClear(ctx context.Context) error {
	s.inputBuffer = nil
	s.send(ctx, types.Event{Type: types.EventInputAudioCleared, SessionID: s.id})
	return nil
}

// decodeInboundAudio base64-decodes one wire frame and converts it
// from the session's input format to raw PCM16 at the input rate.
func (s *session) decodeInboundAudio(data []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, types.NewInvalidAudioFrameError("audio data is not valid base64").WithCause(err)
	}
	pcm, err := codec.Decode(s.config.InputAudioFormat, raw)
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

// send stamps and writes one outbound event. Write failures are logged
// rather than propagated: a dead connection surfaces on the next read.
func (s *session) send(ctx context.Context, ev types.Event) {
	ev.EventID = "evt_" + uuid.NewString()
	if ev.SessionID == "" {
		ev.SessionID = s.id
	}
	if err := s.conn.WriteEvent(ctx, ev); err != nil {
		s.logger.Debug("write failed", zap.String("event_type", string(ev.Type)), zap.Error(err))
		return
	}
	s.eng.metrics.EventOutbound(string(ev.Type))
}

// sendRateLimits emits a fresh quota snapshot without consuming any.
func (s *session) sendRateLimits(ctx context.Context) {
	_, status := s.eng.limiter.Check(s.id, 0)
	s.send(ctx, types.Event{
		Type:       types.EventRateLimitsUpdated,
		SessionID:  s.id,
		RateLimits: &status,
	})
}

// writeRaw writes to a connection that never reached the Created
// state, so there is no session to stamp.
func (e *Engine) writeRaw(ctx context.Context, conn Conn, ev types.Event) {
	ev.EventID = "evt_" + uuid.NewString()
	if err := conn.WriteEvent(ctx, ev); err != nil {
		e.logger.Debug("write failed on unauthenticated connection", zap.Error(err))
		return
	}
	e.metrics.EventOutbound(string(ev.Type))
}

func modalityStrings(mods []types.Modality) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = string(m)
	}
	return out
}
