package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c360/semledger/natsclient"
	"github.com/c360/semledger/writer"
)

func startJetStreamContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          []string{"-js"},
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	natsURL := fmt.Sprintf("nats://%s:%s", host, port.Port())

	// Wait for NATS to be fully ready
	time.Sleep(200 * time.Millisecond)

	return natsContainer, natsURL
}

// TestIntegration_JetStreamSinkPublishes pushes entities through the
// sink and reads them back off the stream.
func TestIntegration_JetStreamSinkPublishes(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startJetStreamContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	client, err := natsclient.NewClient(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	cfg := DefaultJetStreamConfig()
	cfg.SubjectPrefix = "ledger.entities"
	cfg.StreamName = "LEDGER_ENTITIES"
	s, err := NewJetStream(client, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, s.EnsureStream(ctx))
	// A second call against the existing stream is a no-op.
	require.NoError(t, s.EnsureStream(ctx))

	received := make(chan map[string]any, 16)
	err = client.ConsumeStream(ctx, cfg.StreamName, cfg.SubjectPrefix+".contract", func(data []byte) {
		var entity map[string]any
		if json.Unmarshal(data, &entity) == nil {
			received <- entity
		}
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := s.SaveEntity(ctx, "contract", map[string]any{"key": fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	}

	keys := make(map[string]bool)
	for i := 0; i < 3; i++ {
		select {
		case entity := <-received:
			keys[fmt.Sprint(entity["key"])] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("Timeout waiting for entity %d", i)
		}
	}
	assert.Len(t, keys, 3)
}

// TestIntegration_JetStreamSinkBehindWriter runs the full delivery
// path: chunked writer, rate limiter, JetStream sink.
func TestIntegration_JetStreamSinkBehindWriter(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startJetStreamContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	client, err := natsclient.NewClient(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	cfg := DefaultJetStreamConfig()
	cfg.SubjectPrefix = "ledger.entities"
	cfg.StreamName = "LEDGER_ENTITIES"
	js, err := NewJetStream(client, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, js.EnsureStream(ctx))

	limited, err := NewRateLimited(js, 500, 50)
	require.NoError(t, err)

	w, err := writer.NewChunkedWriter("contract", limited, writer.WithConfig(writer.Config{
		ChunkSize: 10,
		Workers:   3,
	}))
	require.NoError(t, err)

	recs := make([]map[string]any, 0, 25)
	for i := 0; i < 25; i++ {
		recs = append(recs, map[string]any{"key": fmt.Sprintf("c%d", i)})
	}
	require.NoError(t, w.Write(ctx, recs))
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(25), stats.SuccessfulWrites)
	assert.Equal(t, int64(0), stats.FailedWrites)

	stream, err := client.GetStream(ctx, cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), info.State.Msgs)
}
