package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llamapanel/pkg/inference"
)

// fakeClient records the prompts it receives and replies with a canned
// response or error.
type fakeClient struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeClient) Chat(_ context.Context, req inference.ChatRequest) (*inference.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range req.Messages {
		f.prompts = append(f.prompts, m.Content)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &inference.ChatResponse{Content: f.reply}, nil
}

func (f *fakeClient) Provider() string { return "fake" }

func TestNewCoordinator(t *testing.T) {
	t.Run("should reject a member without a client", func(t *testing.T) {
		_, err := NewCoordinator([]Member{{Model: "gemma3:4b"}}, zerolog.Nop())
		assert.ErrorContains(t, err, "gemma3:4b")
	})

	t.Run("should copy the roster", func(t *testing.T) {
		members := []Member{{Model: "gemma3:4b", Client: &fakeClient{}}}
		c, err := NewCoordinator(members, zerolog.Nop())
		require.NoError(t, err)

		members[0].Model = "mutated"
		assert.Equal(t, "gemma3:4b", c.Members()[0].Model)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("should return the bare question without context", func(t *testing.T) {
		assert.Equal(t, "Is the sky blue?", BuildPrompt("Is the sky blue?", nil))
	})

	t.Run("should append prior tool outputs in order", func(t *testing.T) {
		prompt := BuildPrompt("Is the sky blue?", []string{"output A", "output B"})
		assert.Equal(t, "Is the sky blue?\n\nContext from previous tool outputs:\noutput A\n\noutput B", prompt)
	})
}

func TestConsult(t *testing.T) {
	t.Run("should join all member responses in registration order", func(t *testing.T) {
		c, err := NewCoordinator([]Member{
			{Model: "gemma3:4b", Temperature: 0.5, Client: &fakeClient{reply: "yes"}},
			{Model: "granite3.3:2b", Temperature: 0.5, Client: &fakeClient{reply: "probably"}},
			{Model: "qwen3:4b", Temperature: 0.5, Client: &fakeClient{reply: "no"}},
		}, zerolog.Nop())
		require.NoError(t, err)

		combined := c.Consult(context.Background(), "Is the sky blue?", nil)

		sections := strings.Split(combined, "\n\n---\n\n")
		require.Len(t, sections, 3)
		assert.Equal(t, "Response from 'gemma3:4b':\nyes", sections[0])
		assert.Equal(t, "Response from 'granite3.3:2b':\nprobably", sections[1])
		assert.Equal(t, "Response from 'qwen3:4b':\nno", sections[2])
	})

	t.Run("should render a failing member as an error section without dropping the others", func(t *testing.T) {
		c, err := NewCoordinator([]Member{
			{Model: "gemma3:4b", Client: &fakeClient{reply: "yes"}},
			{Model: "granite3.3:2b", Client: &fakeClient{err: fmt.Errorf("connection refused")}},
			{Model: "qwen3:4b", Client: &fakeClient{reply: "no"}},
		}, zerolog.Nop())
		require.NoError(t, err)

		combined := c.Consult(context.Background(), "Is the sky blue?", nil)

		sections := strings.Split(combined, "\n\n---\n\n")
		require.Len(t, sections, 3)
		assert.Equal(t, "Response from 'gemma3:4b':\nyes", sections[0])
		assert.Equal(t, "Error: could not get a response from model 'granite3.3:2b': connection refused", sections[1])
		assert.Equal(t, "Response from 'qwen3:4b':\nno", sections[2])
	})

	t.Run("should send the identical prompt to every member", func(t *testing.T) {
		clients := []*fakeClient{
			{reply: "a"},
			{reply: "b"},
		}
		c, err := NewCoordinator([]Member{
			{Model: "gemma3:4b", Client: clients[0]},
			{Model: "qwen3:4b", Client: clients[1]},
		}, zerolog.Nop())
		require.NoError(t, err)

		c.Consult(context.Background(), "Q", []string{"ctx1", "ctx2"})

		want := BuildPrompt("Q", []string{"ctx1", "ctx2"})
		for _, client := range clients {
			require.Len(t, client.prompts, 1)
			assert.Equal(t, want, client.prompts[0])
			assert.Equal(t, 1, strings.Count(client.prompts[0], "Q"))
			assert.Equal(t, 1, strings.Count(client.prompts[0], "ctx1"))
			assert.Equal(t, 1, strings.Count(client.prompts[0], "ctx2"))
		}
	})
}
