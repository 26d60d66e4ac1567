package inference

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageParams(t *testing.T) {
	t.Run("should always send the temperature including zero", func(t *testing.T) {
		params := buildMessageParams(ChatRequest{Model: "claude-sonnet-4-20250514", Temperature: 0.0})

		require.True(t, params.Temperature.Valid())
		assert.Equal(t, 0.0, params.Temperature.Value)
	})

	t.Run("should lift the system turn out of the message list", func(t *testing.T) {
		params := buildMessageParams(ChatRequest{
			Model: "claude-sonnet-4-20250514",
			Messages: []Message{
				{Role: "system", Content: "rules"},
				{Role: "user", Content: "question"},
				{Role: "assistant", Content: "reply"},
				{Role: "tool", Content: "tool output"},
			},
		})

		require.Len(t, params.System, 1)
		assert.Equal(t, "rules", params.System[0].Text)

		require.Len(t, params.Messages, 3)
		assert.Equal(t, anthropic.MessageParamRoleUser, params.Messages[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, params.Messages[1].Role)
		assert.Equal(t, anthropic.MessageParamRoleUser, params.Messages[2].Role)
	})

	t.Run("should cap the response length", func(t *testing.T) {
		params := buildMessageParams(ChatRequest{Model: "claude-sonnet-4-20250514"})
		assert.EqualValues(t, anthropicMaxTokens, params.MaxTokens)
	})
}
