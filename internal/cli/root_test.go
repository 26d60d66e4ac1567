package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llamapanel/pkg/inference"
	"llamapanel/pkg/orchestrator"
	"llamapanel/pkg/protocol"
)

// blockingClient hangs until the context is canceled, like a backend call
// interrupted mid-flight.
type blockingClient struct{}

func (blockingClient) Chat(ctx context.Context, _ inference.ChatRequest) (*inference.ChatResponse, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("request aborted: %w", ctx.Err())
}

func (blockingClient) Provider() string { return "blocking" }

type failingClient struct{}

func (failingClient) Chat(_ context.Context, _ inference.ChatRequest) (*inference.ChatResponse, error) {
	return nil, fmt.Errorf("connection refused")
}

func (failingClient) Provider() string { return "failing" }

type nullDispatcher struct{}

func (nullDispatcher) Dispatch(_ context.Context, _ protocol.Call, _ []string) (string, bool) {
	return "", false
}

func newSessionSystem(t *testing.T, client inference.Client) *orchestrator.Orchestrator {
	t.Helper()
	system, err := orchestrator.New(client, nullDispatcher{}, orchestrator.Config{
		ExpertModel: "mistral-small3.2",
		MaxSteps:    5,
		Output:      &bytes.Buffer{},
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return system
}

func TestRunSession(t *testing.T) {
	t.Run("should treat an interrupt during a session as a graceful exit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		system := newSessionSystem(t, blockingClient{})

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		assert.NoError(t, runSession(ctx, system, "question"))
	})

	t.Run("should surface a backend failure as an error", func(t *testing.T) {
		system := newSessionSystem(t, failingClient{})

		err := runSession(context.Background(), system, "question")
		assert.ErrorContains(t, err, "connection refused")
	})
}
