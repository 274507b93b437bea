package types

import (
	"time"
)

// Modality is an output channel a session may produce.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
)

// AudioFormat identifies a wire audio encoding.
type AudioFormat string

const (
	AudioFormatPCM16    AudioFormat = "pcm16"
	AudioFormatG711ULaw AudioFormat = "g711_ulaw"
	AudioFormatG711ALaw AudioFormat = "g711_alaw"
)

// Session configuration defaults. Any field omitted by the caller
// resolves to one of these, never to undefined behavior.
const (
	DefaultModel             = "gpt-4o-realtime"
	DefaultVoice             = "alloy"
	DefaultInputAudioFormat  = AudioFormatPCM16
	DefaultOutputAudioFormat = AudioFormatPCM16
	DefaultSampleRate        = 24000
)

// SessionConfig holds the mutable configuration of a realtime session.
type SessionConfig struct {
	Model             string            `json:"model,omitempty" yaml:"model"`
	Instructions      string            `json:"instructions,omitempty" yaml:"instructions"`
	OutputModalities  []Modality        `json:"output_modalities,omitempty" yaml:"output_modalities"`
	Voice             string            `json:"voice,omitempty" yaml:"voice"`
	Tools             []ToolSchema      `json:"tools,omitempty" yaml:"tools"`
	Persona           map[string]string `json:"persona,omitempty" yaml:"persona"`
	InputAudioFormat  AudioFormat       `json:"input_audio_format,omitempty" yaml:"input_audio_format"`
	OutputAudioFormat AudioFormat       `json:"output_audio_format,omitempty" yaml:"output_audio_format"`
	InputSampleRate   int               `json:"input_sample_rate,omitempty" yaml:"input_sample_rate"`
	OutputSampleRate  int               `json:"output_sample_rate,omitempty" yaml:"output_sample_rate"`
}

// ApplyDefaults fills every omitted field with its documented default
// and returns the resolved config.
func (c SessionConfig) ApplyDefaults() SessionConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if len(c.OutputModalities) == 0 {
		c.OutputModalities = []Modality{ModalityText, ModalityAudio}
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.InputAudioFormat == "" {
		c.InputAudioFormat = DefaultInputAudioFormat
	}
	if c.OutputAudioFormat == "" {
		c.OutputAudioFormat = DefaultOutputAudioFormat
	}
	if c.InputSampleRate == 0 {
		c.InputSampleRate = DefaultSampleRate
	}
	if c.OutputSampleRate == 0 {
		c.OutputSampleRate = DefaultSampleRate
	}
	return c
}

// Merge overlays the non-zero fields of other onto c and returns the
// result. Used by session.update: supplied fields win, omitted fields
// keep their current value.
func (c SessionConfig) Merge(other SessionConfig) SessionConfig {
	if other.Model != "" {
		c.Model = other.Model
	}
	if other.Instructions != "" {
		c.Instructions = other.Instructions
	}
	if len(other.OutputModalities) > 0 {
		c.OutputModalities = other.OutputModalities
	}
	if other.Voice != "" {
		c.Voice = other.Voice
	}
	if len(other.Tools) > 0 {
		c.Tools = other.Tools
	}
	if len(other.Persona) > 0 {
		if c.Persona == nil {
			c.Persona = make(map[string]string, len(other.Persona))
		}
		for k, v := range other.Persona {
			c.Persona[k] = v
		}
	}
	if other.InputAudioFormat != "" {
		c.InputAudioFormat = other.InputAudioFormat
	}
	if other.OutputAudioFormat != "" {
		c.OutputAudioFormat = other.OutputAudioFormat
	}
	if other.InputSampleRate != 0 {
		c.InputSampleRate = other.InputSampleRate
	}
	if other.OutputSampleRate != 0 {
		c.OutputSampleRate = other.OutputSampleRate
	}
	return c
}

// HasModality reports whether the config enables the given modality.
func (c SessionConfig) HasModality(m Modality) bool {
	for _, mod := range c.OutputModalities {
		if mod == m {
			return true
		}
	}
	return false
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusCreated SessionStatus = "created"
	SessionStatusActive  SessionStatus = "active"
	SessionStatusClosed  SessionStatus = "closed"
)

// Session is a live, stateful conversational context bound to one
// connection. Mutated only by its owning protocol engine instance.
type Session struct {
	ID        string        `json:"id"`
	Config    SessionConfig `json:"config"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// ClientSecret is a short-lived, single-use token exchanged for a live
// session. Owned exclusively by the secrets registry; read-only after
// creation.
type ClientSecret struct {
	Value     string        `json:"value"`
	Config    SessionConfig `json:"-"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Expired reports whether the secret's TTL has elapsed at the given time.
func (s ClientSecret) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
