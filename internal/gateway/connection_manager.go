package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// LeagueEvent is the envelope fanned out to websocket clients, mirroring
// what the outbox publisher puts on the bus.
type LeagueEvent struct {
	EventID     string `json:"eventId"`
	EventType   string `json:"eventType"`
	AggregateID string `json:"aggregateId"`
	Timestamp   string `json:"timestamp"`
	Payload     any    `json:"payload"`
}

// ConnectionConfig holds websocket connection tuning.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default tuning.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Connection is one websocket client. TopicPrefix filters which events the
// client receives; empty means everything.
type Connection struct {
	ID          string
	UserID      string
	TopicPrefix string
	Conn        *websocket.Conn
	Send        chan []byte

	ConnectedAt time.Time
}

// ConnectionManager fans league events out to websocket clients.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	broadcastCh chan broadcastMessage
	log         zerolog.Logger
}

type broadcastMessage struct {
	eventType string
	data      []byte
}

func NewConnectionManager(config ConnectionConfig, log zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
		log:         log.With().Str("component", "gateway").Logger(),
	}
}

// Start processes broadcasts until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	cm.log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			cm.log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case msg := <-cm.broadcastCh:
			cm.fanOut(msg)
		}
	}
}

// Broadcast queues an event for delivery to matching connections. Drops the
// event when the queue is full rather than blocking the consumer.
func (cm *ConnectionManager) Broadcast(eventType string, data []byte) {
	select {
	case cm.broadcastCh <- broadcastMessage{eventType: eventType, data: data}:
	default:
		cm.log.Warn().Str("event_type", eventType).Msg("broadcast queue full, event dropped")
	}
}

// UpgradeConnection turns an HTTP request into a managed websocket client.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID, topicPrefix string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		TopicPrefix: topicPrefix,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		ConnectedAt: time.Now(),
	}

	cm.mu.Lock()
	cm.connections[c] = true
	cm.mu.Unlock()

	cm.log.Info().
		Str("connection_id", c.ID).
		Str("user_id", userID).
		Str("topic", topicPrefix).
		Msg("websocket connected")

	go cm.writePump(c)
	go cm.readPump(c)
	return nil
}

// ConnectionCount returns the number of live connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) fanOut(msg broadcastMessage) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for c := range cm.connections {
		if c.TopicPrefix != "" && !strings.HasPrefix(msg.eventType, c.TopicPrefix) {
			continue
		}
		select {
		case c.Send <- msg.data:
		default:
			cm.log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping event")
		}
	}
}

func (cm *ConnectionManager) writePump(c *Connection) {
	ticker := time.NewTicker(cm.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (cm *ConnectionManager) readPump(c *Connection) {
	defer cm.remove(c)

	c.Conn.SetReadLimit(cm.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
		return nil
	})

	// Clients are read-only consumers; any inbound data just resets the
	// deadline until the connection drops.
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cm *ConnectionManager) remove(c *Connection) {
	cm.mu.Lock()
	if cm.connections[c] {
		delete(cm.connections, c)
		close(c.Send)
	}
	cm.mu.Unlock()

	c.Conn.Close()
	cm.log.Info().Str("connection_id", c.ID).Msg("websocket disconnected")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for c := range cm.connections {
		close(c.Send)
		c.Conn.Close()
		delete(cm.connections, c)
	}
}
