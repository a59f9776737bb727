package cache

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventType for cache monitor messages
type EventType string

const (
	EventSnapshot    EventType = "snapshot"
	EventCleanup     EventType = "cleanup"
	EventInvalidated EventType = "invalidated"
)

// EventsChannel relays cache events between the API and the standalone worker
const EventsChannel = "cache:events"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

var (
	monitorClientsGauge = expvar.NewInt("cache_monitor_clients")
	monitorEventsSent   = expvar.NewInt("cache_monitor_events_sent_total")
	monitorEventsDrop   = expvar.NewInt("cache_monitor_events_dropped_total")
)

// Event is one message on the monitor stream
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time time.Time   `json:"time"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Monitor streams cache events to websocket clients. With Redis configured, events
// published by any process are fanned out to every connected client.
type Monitor struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	upgrader websocket.Upgrader

	redis  *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMonitor creates a monitor; redisClient may be nil
func NewMonitor(redisClient *redis.Client, allowedOrigins []string) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		redis:  redisClient,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run relays Redis events until Close (call in goroutine)
func (m *Monitor) Run() {
	if m.redis == nil {
		<-m.ctx.Done()
		return
	}

	sub := m.redis.Subscribe(m.ctx, EventsChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-m.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.broadcastLocal([]byte(msg.Payload))
		}
	}
}

// Close stops the relay and disconnects every client
func (m *Monitor) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		delete(m.clients, c)
		close(c.send)
		monitorClientsGauge.Add(-1)
	}
}

// Publish sends ev to all monitors, or only local clients without Redis
func (m *Monitor) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal cache event")
		return
	}

	if m.redis != nil {
		err := m.redis.Publish(m.ctx, EventsChannel, data).Err()
		if err == nil {
			return
		}
		log.Warn().Err(err).Msg("Redis publish failed, delivering locally")
	}
	m.broadcastLocal(data)
}

func (m *Monitor) broadcastLocal(data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for c := range m.clients {
		select {
		case c.send <- data:
			monitorEventsSent.Add(1)
		default:
			monitorEventsDrop.Add(1)
		}
	}
}

// Clients returns the number of connected clients
func (m *Monitor) Clients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Serve upgrades the request and streams events, starting with snapshot
func (m *Monitor) Serve(w http.ResponseWriter, r *http.Request, snapshot interface{}) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	if data, err := json.Marshal(Event{Type: EventSnapshot, Data: snapshot, Time: time.Now().UTC()}); err == nil {
		c.send <- data
	}

	m.mu.Lock()
	m.clients[c] = true
	m.mu.Unlock()
	monitorClientsGauge.Add(1)

	go m.reader(c)
	go m.writer(c)
}

func (m *Monitor) unregister(c *client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		close(c.send)
		monitorClientsGauge.Add(-1)
	}
}

// reader only watches for close and pong frames
func (m *Monitor) reader(c *client) {
	defer func() {
		m.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("Cache monitor read error")
			}
			return
		}
	}
}

func (m *Monitor) writer(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
