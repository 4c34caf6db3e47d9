package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/writer"
)

var _ writer.Sink = (*WebSocket)(nil)

// WebSocketConfig holds configuration for the WebSocket sink.
type WebSocketConfig struct {
	// URL is the collector endpoint, ws or wss scheme.
	URL string `json:"url" yaml:"url"`
	// HandshakeTimeout bounds the dial handshake.
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
	// WriteTimeout bounds each message write.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// PingInterval is the keepalive ping period. The connection is
	// considered dead when no pong arrives within two intervals.
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
}

// DefaultWebSocketConfig returns default configuration for the
// WebSocket sink.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		HandshakeTimeout: 45 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *WebSocketConfig) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "WebSocketConfig", "Validate", "url is required")
	}

	parsed, err := url.Parse(c.URL)
	if err != nil {
		return errors.WrapInvalid(err, "WebSocketConfig", "Validate", "parse url")
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "WebSocketConfig", "Validate",
			"url scheme must be ws or wss")
	}

	return nil
}

// entityEnvelope wraps each forwarded entity with type discrimination
// so collectors can multiplex message kinds on one connection.
type entityEnvelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WebSocket forwards entities to a collector as JSON text messages over
// a persistent connection. The connection is dialed lazily on first
// save and redialed after failures, so transient drops surface as
// retryable errors to the writer.
type WebSocket struct {
	config WebSocketConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	// mu guards conn and serializes writes; gorilla connections do not
	// allow concurrent writers.
	mu   sync.Mutex
	conn *websocket.Conn

	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	sent   int64
	errors int64
}

// NewWebSocket creates the sink and starts its keepalive loop. No
// connection is made until the first save.
func NewWebSocket(config WebSocketConfig, logger *slog.Logger) (*WebSocket, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultWebSocketConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}

	s := &WebSocket{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.keepalive()

	return s, nil
}

// Name identifies the sink in writer logs and metrics.
func (s *WebSocket) Name() string { return "websocket" }

// SaveEntity forwards one entity as a text message. The returned id is
// the envelope id the collector can correlate on.
func (s *WebSocket) SaveEntity(ctx context.Context, entityType string, data map[string]any) (string, error) {
	payload, err := json.Marshal(fileEntity{EntityType: entityType, Entity: data})
	if err != nil {
		return "", errors.WrapInvalid(err, "WebSocket", "SaveEntity", "marshal entity")
	}

	env := entityEnvelope{
		Type:      "entity",
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
	message, err := json.Marshal(env)
	if err != nil {
		return "", errors.WrapInvalid(err, "WebSocket", "SaveEntity", "marshal envelope")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.shutdown:
		return "", errors.WrapInvalid(errors.ErrAlreadyStopped, "WebSocket", "SaveEntity", "sink closed")
	default:
	}

	if err := s.ensureConnLocked(ctx); err != nil {
		return "", errors.WrapTransient(err, "WebSocket", "SaveEntity", "connect to collector")
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		s.dropConnLocked()
		s.errors++
		return "", errors.WrapTransient(err, "WebSocket", "SaveEntity", "write entity message")
	}

	s.sent++
	return env.ID, nil
}

// Close stops the keepalive loop and closes the connection. Saves
// after Close fail.
func (s *WebSocket) Close() error {
	s.closeOnce.Do(func() {
		close(s.shutdown)
	})
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.dropConnLocked()
	}

	s.logger.Debug("Closed websocket sink",
		"url", s.config.URL,
		"sent", s.sent,
		"errors", s.errors)
	return nil
}

// ensureConnLocked dials the collector if no connection is live. Caller
// holds s.mu.
func (s *WebSocket) ensureConnLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	conn, _, err := s.dialer.DialContext(ctx, s.config.URL, nil)
	if err != nil {
		s.errors++
		return err
	}

	pongWait := 2 * s.config.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.conn = conn
	go s.readLoop(conn)

	s.logger.Debug("Connected to collector", "url", s.config.URL)
	return nil
}

// dropConnLocked closes and forgets the current connection. Caller
// holds s.mu.
func (s *WebSocket) dropConnLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// readLoop drains inbound frames so pongs are processed. It exits when
// the connection dies, detaching it if still current.
func (s *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.dropConnLocked()
			}
			s.mu.Unlock()
			return
		}
	}
}

// keepalive pings the collector on a ticker so intermediaries keep the
// connection open and dead peers are noticed between saves.
func (s *WebSocket) keepalive() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != nil {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.dropConnLocked()
					s.errors++
				}
			}
			s.mu.Unlock()
		}
	}
}
