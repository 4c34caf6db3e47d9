// Package natsclient provides a NATS client with circuit breaker protection,
// automatic reconnection, and JetStream support.
//
// The package wraps the standard NATS Go client with reliability features:
// a circuit breaker that fails fast after repeated connection failures,
// exponential backoff between recovery attempts, and context propagation on
// every blocking operation. It carries entity records from the chunked writer
// to JetStream streams and is the foundation for all NATS communication in
// the ledger.
//
// # Core Features
//
// Circuit Breaker: after a threshold of consecutive failures (default 5) the
// circuit opens and operations return ErrCircuitOpen immediately instead of
// piling up behind a dead connection. The breaker re-tests the connection
// after an exponentially growing backoff, capped at a configurable maximum.
//
// Connection Lifecycle: the client tracks its state through
// Disconnected, Connecting, Connected, Reconnecting and CircuitOpen, with
// optional callbacks on disconnect, reconnect, and health changes.
//
// JetStream: streams and consumers are created through the client so that
// failures feed the circuit breaker and created resources are tracked for
// metrics collection.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	// Publish a message
//	err = client.Publish(ctx, "subject.name", []byte("message data"))
//
//	// Subscribe to messages
//	err = client.Subscribe(ctx, "subject.*", func(msgCtx context.Context, data []byte) {
//	    // Handle message with context (30s timeout per message)
//	})
//
// # JetStream Operations
//
//	// Create a stream
//	stream, err := client.CreateStream(ctx, jetstream.StreamConfig{
//	    Name:     "ENTITIES",
//	    Subjects: []string{"entities.>"},
//	})
//
//	// Publish to the stream
//	err = client.PublishToStream(ctx, "entities.contract", payload)
//
//	// Consume from the stream
//	err = client.ConsumeStream(ctx, "ENTITIES", "entities.>", func(data []byte) {
//	    // Process record
//	})
//
// # Error Handling
//
// Operations against an unavailable server return sentinel errors that
// callers can branch on:
//
//	err := client.PublishToStream(ctx, subject, data)
//	if errors.Is(err, natsclient.ErrCircuitOpen) {
//	    // Back off, the breaker will re-test the connection
//	}
//	if errors.Is(err, natsclient.ErrNotConnected) {
//	    // Connect first
//	}
//
// # Metrics
//
// Passing a registry with WithMetrics registers JetStream gauges for the
// streams and consumers created through the client, refreshed by a
// background poller:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithMetrics(registry),
//	    natsclient.WithMetricsInterval(30*time.Second),
//	)
//
// # Testing
//
// NewTestClient starts a real NATS server via testcontainers and returns a
// connected client with cleanup registered on the test:
//
//	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
//	err := tc.Client.PublishToStream(ctx, "entities.contract", data)
//
// # Thread Safety
//
// The Client is safe for concurrent use. Connection state is managed with
// atomic operations, subscriptions and consumers can be created from any
// goroutine, and Close runs its cleanup exactly once.
package natsclient
