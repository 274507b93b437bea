package engine

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/codec"
	"github.com/BaSui01/voicegate/inference"
	"github.com/BaSui01/voicegate/types"
)

// handleResponseCreate runs one full response turn: quota check,
// downstream stream, delta relay, history append, settlement. The
// event order on the wire is fixed: response.created, zero or more
// deltas and tool items, conversation.item.created for the assistant
// item, response.done, rate_limits.updated.
func (s *session) handleResponseCreate(ctx context.Context, ev types.Event) error {
	history, err := s.eng.store.List(ctx, s.id)
	if err != nil {
		return err
	}

	estimate := s.estimateTokens(history)
	allowed, status := s.eng.limiter.Check(s.id, estimate)
	if !allowed {
		s.eng.metrics.RateLimitDenied()
		s.logger.Warn("response denied by rate limiter",
			zap.Int("estimated_tokens", estimate),
			zap.Float64("reset_seconds", status.ResetSeconds))
		out := types.ErrorEvent(types.NewRateLimitError(status.ResetSeconds))
		out.RateLimits = &status
		s.send(ctx, out)
		return nil
	}

	responseID := "resp_" + uuid.NewString()
	started := s.eng.now()
	s.send(ctx, types.Event{
		Type:       types.EventResponseCreated,
		SessionID:  s.id,
		ResponseID: responseID,
	})

	streamCtx, cancel := context.WithTimeout(ctx, s.eng.downstreamTimeout)
	defer cancel()

	req := inference.Request{
		SessionID:    s.id,
		Model:        s.config.Model,
		Instructions: s.config.Instructions,
		Voice:        s.config.Voice,
		Modalities:   s.config.OutputModalities,
		History:      history,
		SampleRate:   s.config.OutputSampleRate,
	}
	chunks, err := s.eng.responder.Stream(streamCtx, req)
	if err != nil {
		s.failResponse(ctx, responseID, err)
		return nil
	}

	var (
		text  []byte
		audio []byte
		usage *types.TokenUsage
	)
	for {
		var (
			chunk inference.Chunk
			open  bool
		)
		select {
		case chunk, open = <-chunks:
		case <-streamCtx.Done():
			s.failResponse(ctx, responseID, streamCtx.Err())
			return nil
		}
		if !open {
			// A stream that ended because the deadline fired is a
			// timeout even when the close beats the Done signal.
			if err := streamCtx.Err(); err != nil {
				s.failResponse(ctx, responseID, err)
				return nil
			}
			break
		}
		if chunk.Err != nil {
			s.failResponse(ctx, responseID, chunk.Err)
			return nil
		}

		switch {
		case chunk.Text != "":
			text = append(text, chunk.Text...)
			s.send(ctx, types.Event{
				Type:       types.EventResponseTextDelta,
				SessionID:  s.id,
				ResponseID: responseID,
				Delta:      chunk.Text,
			})
		case len(chunk.Audio) > 0:
			audio = append(audio, chunk.Audio...)
			wire, err := codec.Encode(s.config.OutputAudioFormat, chunk.Audio)
			if err != nil {
				s.failResponse(ctx, responseID, err)
				return nil
			}
			s.eng.metrics.AudioTranscoded("outbound", len(wire))
			s.send(ctx, types.Event{
				Type:       types.EventResponseAudioDelta,
				SessionID:  s.id,
				ResponseID: responseID,
				Audio:      base64.StdEncoding.EncodeToString(wire),
			})
		case chunk.ToolCall != nil:
			if err := s.runToolCall(ctx, *chunk.ToolCall); err != nil {
				s.failResponse(ctx, responseID, err)
				return nil
			}
		case chunk.Usage != nil:
			usage = chunk.Usage
		}
	}

	item := s.assistantItem(text, audio)
	stored, err := s.eng.store.Append(ctx, s.id, item)
	if err != nil {
		s.failResponse(ctx, responseID, err)
		return nil
	}
	s.send(ctx, types.Event{
		Type:      types.EventConversationItemCreated,
		SessionID: s.id,
		Item:      &stored,
	})

	if usage == nil {
		usage = &types.TokenUsage{
			PromptTokens:     s.estimateTokens(history),
			CompletionTokens: s.counter.CountTokens(string(text)),
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	s.eng.limiter.Consume(s.id, usage.TotalTokens)
	s.eng.metrics.TokensConsumed(usage.TotalTokens)
	s.eng.metrics.ResponseFinished(s.eng.now().Sub(started).Seconds())

	s.send(ctx, types.Event{
		Type:       types.EventResponseDone,
		SessionID:  s.id,
		ResponseID: responseID,
		Status:     types.ResponseStatusCompleted,
		Usage:      usage,
	})
	s.sendRateLimits(ctx)
	return nil
}

// runToolCall validates and executes one model-requested tool
// invocation and appends its outcome as a tool-role item. Validation
// and execution failures become tool items, not response failures.
func (s *session) runToolCall(ctx context.Context, call inference.ToolCall) error {
	var result types.ToolResult
	if err := s.eng.tools.Validate(call.Name, call.Args); err != nil {
		appErr, _ := types.AsError(err)
		result = types.ToolResult{Name: call.Name, Success: false, Error: appErr.Message}
	} else {
		result = s.eng.tools.Execute(ctx, call.Name, call.Args)
	}
	s.logger.Debug("tool call finished",
		zap.String("tool", call.Name),
		zap.Bool("success", result.Success))

	stored, err := s.eng.store.Append(ctx, s.id, result.ToItem(s.id))
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

// failResponse settles a started response as failed. A failed response
// still terminates with response.done so the client's turn accounting
// never desynchronizes, and it consumes no quota.
func (s *session) failResponse(ctx context.Context, responseID string, err error) {
	appErr, ok := types.AsError(err)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			appErr = types.NewError(types.ErrDownstreamTimeout, "Downstream response timed out").
				WithRetryable(true).WithCause(err)
		case errors.Is(err, context.Canceled):
			appErr = types.NewError(types.ErrDownstreamFailure, "Downstream response cancelled").WithCause(err)
		default:
			appErr = types.WrapError(types.ErrDownstreamFailure, "Downstream response failed", err)
		}
	}
	s.logger.Warn("response failed",
		zap.String("response_id", responseID),
		zap.String("code", string(appErr.Code)),
		zap.Error(err))
	s.send(ctx, types.Event{
		Type:       types.EventResponseDone,
		SessionID:  s.id,
		ResponseID: responseID,
		Status:     types.ResponseStatusFailed,
		Error:      appErr,
	})
}

// assistantItem builds the durable record of a completed response.
func (s *session) assistantItem(text, audio []byte) types.ConversationItem {
	var content []types.ContentPart
	if len(text) > 0 {
		content = append(content, types.ContentPart{Type: types.ContentPartText, Text: string(text)})
	}
	if len(audio) > 0 {
		content = append(content, types.ContentPart{
			Type:       types.ContentPartAudio,
			Audio:      audio,
			Format:     types.AudioFormatPCM16,
			SampleRate: s.config.OutputSampleRate,
		})
	}
	if len(content) == 0 {
		content = []types.ContentPart{{Type: types.ContentPartText, Text: ""}}
	}
	return types.ConversationItem{
		SessionID: s.id,
		Role:      types.RoleAssistant,
		Content:   content,
	}
}

// estimateTokens approximates the prompt cost of a history when the
// downstream collaborator reports no usage of its own.
func (s *session) estimateTokens(history []types.ConversationItem) int {
	total := 0
	for _, item := range history {
		if t := item.TextContent(); t != "" {
			total += s.counter.CountTokens(t)
		}
	}
	return total
}
