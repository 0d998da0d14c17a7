// Package gateway is the realtime transport: one WebSocket per authenticated user,
// bound to the session registry for the lifetime of the connection.
package gateway

import (
	"context"
	"dm-chat/auth"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"dm-chat/sink"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageSender is the chat core as seen by the transport.
type MessageSender interface {
	SendMessage(ctx context.Context, authUserID string, cmd domain.SendMessageCommand) (domain.Message, error)
}

type Config struct {
	BufferSize    int
	WriteWait     time.Duration
	PongWait      time.Duration
	PingPeriod    time.Duration
	MaxFrameBytes int64
	// AllowedOrigin restricts browser handshakes, empty accepts any origin.
	AllowedOrigin string
}

func DefaultConfig() Config {
	return Config{
		BufferSize:    64,
		WriteWait:     10 * time.Second,
		PongWait:      60 * time.Second,
		PingPeriod:    54 * time.Second,
		MaxFrameBytes: 64 * 1024,
	}
}

// withDefaults fills the zero fields, keeping PingPeriod below PongWait.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = def.MaxFrameBytes
	}
	return c
}

// Envelope is the frame format in both directions: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Gateway struct {
	verifier auth.TokenVerifier
	registry contract.IRegistry
	chat     MessageSender
	upgrader websocket.Upgrader
	cfg      Config
	log      *slog.Logger

	closing   chan struct{}
	closeOnce sync.Once
	conns     sync.WaitGroup
}

func NewGateway(verifier auth.TokenVerifier, registry contract.IRegistry, chat MessageSender, cfg Config, log *slog.Logger) *Gateway {
	cfg = cfg.withDefaults()
	g := &Gateway{
		verifier: verifier,
		registry: registry,
		chat:     chat,
		cfg:      cfg,
		log:      log,
		closing:  make(chan struct{}),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return g.cfg.AllowedOrigin == "" || origin == "" || origin == g.cfg.AllowedOrigin
}

// ServeHTTP authenticates the handshake, then runs the connection until it closes.
// Tokens are checked before the upgrade, a rejected client gets a plain HTTP status.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := g.verifier.Verify(auth.TokenFromHandshake(r))
	if err != nil {
		g.log.Debug("Handshake rejected", "remote", r.RemoteAddr, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(errors.HTTPStatus(err))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": auth.RejectionMessage(err)})
		return
	}

	select {
	case <-g.closing:
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the client
		g.log.Debug("Upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	g.conns.Add(1)
	defer g.conns.Done()
	newConnection(g, conn, claims.UserID).run(r.Context())
}

// Close asks every live connection to terminate and waits for them.
func (g *Gateway) Close(ctx context.Context) error {
	g.closeOnce.Do(func() { close(g.closing) })

	done := make(chan struct{})
	go func() {
		g.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connection moves through Authenticated -> Active -> Closed. Authentication
// happened in ServeHTTP, so a connection value always starts authenticated.
type connection struct {
	gateway *Gateway
	conn    *websocket.Conn
	userID  string
	sink    *sink.ConnectionSink
	log     *slog.Logger
}

func newConnection(g *Gateway, conn *websocket.Conn, userID string) *connection {
	return &connection{
		gateway: g,
		conn:    conn,
		userID:  userID,
		sink:    sink.NewConnectionSink(userID, g.cfg.BufferSize),
		log:     g.log.With("user_id", userID),
	}
}

func (c *connection) run(ctx context.Context) {
	c.gateway.registry.Register(c.userID, c.sink)
	c.log.Info("Connection active", "sessions", c.gateway.registry.Count())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop(ctx)

	// Closed: a newer connection of the same user keeps its registry entry
	if !c.gateway.registry.Release(c.userID, c.sink) {
		c.log.Debug("Registry entry already replaced")
	}
	c.sink.Close()
	<-writerDone
	_ = c.conn.Close()
	c.log.Info("Connection closed")
}

// readLoop processes frames one at a time, in arrival order.
func (c *connection) readLoop(ctx context.Context) {
	cfg := c.gateway.cfg
	c.conn.SetReadLimit(cfg.MaxFrameBytes)
	extend := func() { _ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait)) }
	extend()
	c.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Warn("Connection read failed", "error", err)
			}
			return
		}
		extend()
		c.handleFrame(ctx, data)
	}
}

// handleFrame never fails the connection: bad frames and rejected messages are logged and dropped.
func (c *connection) handleFrame(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("Malformed frame dropped", "error", err)
		return
	}

	switch env.Event {
	case domain.EventSendMessage:
		var cmd domain.SendMessageCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.log.Warn("Malformed sendMessage dropped", "error", err)
			return
		}
		msg, err := c.gateway.chat.SendMessage(ctx, c.userID, cmd)
		if err != nil {
			c.log.Warn("Message dropped",
				"recipient", cmd.RecipientID,
				"error", err)
			return
		}
		c.log.Debug("Message sent", "message_id", msg.ID, "recipient", msg.RecipientID)
	default:
		c.log.Debug("Unknown event dropped", "event", env.Event)
	}
}

// writeLoop is the only writer of the socket.
func (c *connection) writeLoop() {
	cfg := c.gateway.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt := <-c.sink.Events:
			if err := c.write(evt); err != nil {
				c.log.Warn("Connection write failed", "error", err)
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-c.gateway.closing:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(cfg.WriteWait))
			_ = c.conn.Close()
			return
		case <-c.sink.Done():
			return
		}
	}
}

func (c *connection) write(evt domain.MessageReceived) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.gateway.cfg.WriteWait))
	return c.conn.WriteJSON(Envelope{Event: domain.EventReceiveMessage, Data: data})
}
