package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCounter(t *testing.T) {
	e := NewEstimateCounter()

	assert.Equal(t, 0, e.CountTokens(""))
	assert.Equal(t, 1, e.CountTokens("hi"))
	// 40 ASCII chars ~ 10 tokens.
	assert.Equal(t, 10, e.CountTokens("0123456789012345678901234567890123456789"))
	// Chinese weighs heavier than ASCII per character.
	assert.Greater(t, e.CountTokens("实时语音网关限流测试"), e.CountTokens("aaaaaaaaaa"))
}

func TestForModel(t *testing.T) {
	assert.Equal(t, "tiktoken:o200k_base", ForModel("gpt-4o-realtime").Name())
	assert.Equal(t, "tiktoken:cl100k_base", ForModel("gpt-4-turbo").Name())
	assert.Equal(t, "estimate", ForModel("qwen-audio").Name())
}
