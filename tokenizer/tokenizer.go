package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter is the minimal token counting interface the engine needs.
type Counter interface {
	CountTokens(text string) int
	Name() string
}

// ForModel returns the best available Counter for the model: tiktoken
// for OpenAI-family encodings, the character estimator otherwise.
func ForModel(model string) Counter {
	if encoding, ok := encodingForModel(model); ok {
		return &TiktokenCounter{model: model, encoding: encoding}
	}
	return NewEstimateCounter()
}

// modelEncodings maps model name prefixes to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

func encodingForModel(model string) (string, bool) {
	if enc, ok := modelEncodings[model]; ok {
		return enc, true
	}
	for prefix, enc := range modelEncodings {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return enc, true
		}
	}
	return "", false
}

// TiktokenCounter counts tokens with a lazily initialized tiktoken
// encoding. On initialization failure it falls back to estimation
// rather than failing the response path.
type TiktokenCounter struct {
	model    string
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// CountTokens implements Counter.
func (t *TiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		t.enc, t.initErr = tiktoken.GetEncoding(t.encoding)
	})
	if t.initErr != nil || t.enc == nil {
		return NewEstimateCounter().CountTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Name implements Counter.
func (t *TiktokenCounter) Name() string { return "tiktoken:" + t.encoding }

// EstimateCounter 以字符数估算 token：中文约 1.5 字符/token，
// 其余约 4 字符/token。
type EstimateCounter struct{}

// NewEstimateCounter creates an EstimateCounter.
func NewEstimateCounter() *EstimateCounter { return &EstimateCounter{} }

// CountTokens implements Counter.
func (e *EstimateCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	var chinese, other int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			chinese++
		} else {
			other++
		}
	}
	tokens := float64(chinese)/1.5 + float64(other)/4.0
	if tokens < 1 {
		return 1
	}
	return int(tokens)
}

// Name implements Counter.
func (e *EstimateCounter) Name() string { return "estimate" }
