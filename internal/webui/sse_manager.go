package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ca-srg/researchpanel/internal/logging"
)

// SSEConfig holds configuration for the SSE manager
type SSEConfig struct {
	HeartbeatInterval time.Duration
	BufferSize        int
	MaxClients        int
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID        string
	SessionID string
	Events    chan []byte
	Done      chan struct{}
	mu        sync.Mutex
	isClosed  bool
}

// SSEManager fans panel events out to the browsers of the owning session
type SSEManager struct {
	clients    map[string]*SSEClient
	mu         sync.RWMutex
	config     *SSEConfig
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	eventQueue chan *SSEEvent
}

// NewSSEManager creates a new SSE manager
func NewSSEManager(config *SSEConfig, logger *slog.Logger) *SSEManager {
	if config == nil {
		config = &SSEConfig{
			HeartbeatInterval: 30 * time.Second,
			BufferSize:        100,
			MaxClients:        100,
		}
	}

	return &SSEManager{
		clients:    make(map[string]*SSEClient),
		config:     config,
		logger:     logging.OrDiscard(logger),
		eventQueue: make(chan *SSEEvent, config.BufferSize),
	}
}

// Start starts the heartbeat and dispatch loops
func (m *SSEManager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.heartbeatLoop()
	go m.eventDispatcher()
}

// Stop stops the loops and disconnects every client
func (m *SSEManager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		m.closeClient(client)
	}
	m.clients = make(map[string]*SSEClient)
}

// RegisterClient registers a client that receives events of sessionID
func (m *SSEManager) RegisterClient(id, sessionID string) (*SSEClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) >= m.config.MaxClients {
		return nil, fmt.Errorf("maximum number of SSE clients reached")
	}

	client := &SSEClient{
		ID:        id,
		SessionID: sessionID,
		Events:    make(chan []byte, m.config.BufferSize),
		Done:      make(chan struct{}),
	}

	m.clients[id] = client
	m.logger.Debug("SSE client registered", "client", id, "total", len(m.clients))
	return client, nil
}

// UnregisterClient removes an SSE client
func (m *SSEManager) UnregisterClient(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[id]; ok {
		m.closeClient(client)
		delete(m.clients, id)
		m.logger.Debug("SSE client unregistered", "client", id, "remaining", len(m.clients))
	}
}

// DisconnectSession closes every client of sessionID
func (m *SSEManager) DisconnectSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, client := range m.clients {
		if client.SessionID == sessionID {
			m.closeClient(client)
			delete(m.clients, id)
		}
	}
}

func (m *SSEManager) closeClient(client *SSEClient) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if !client.isClosed {
		client.isClosed = true
		close(client.Done)
		close(client.Events)
	}
}

// SendEvent queues an event for dispatch. Events are dropped when the queue is full.
func (m *SSEManager) SendEvent(event *SSEEvent) {
	select {
	case m.eventQueue <- event:
	default:
		m.logger.Warn("SSE event queue full, dropping event", "event", event.Event)
	}
}

func (m *SSEManager) eventDispatcher() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case event := <-m.eventQueue:
			m.broadcastEvent(event)
		}
	}
}

func (m *SSEManager) broadcastEvent(event *SSEEvent) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		m.logger.Error("failed to marshal SSE event data", "event", event.Event, "error", err)
		return
	}

	message := formatSSEMessage(event.Event, data)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if !shouldSendToClient(client, event) {
			continue
		}
		client.mu.Lock()
		if !client.isClosed {
			select {
			case client.Events <- message:
			default:
				m.logger.Warn("SSE client buffer full, dropping event", "client", client.ID, "event", event.Event)
			}
		}
		client.mu.Unlock()
	}
}

func shouldSendToClient(client *SSEClient, event *SSEEvent) bool {
	return event.Session == "" || event.Session == client.SessionID
}

func (m *SSEManager) heartbeatLoop() {
	ticker := time.NewTicker(m.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.SendEvent(&SSEEvent{
				Event: EventTypeHeartbeat,
				Data: map[string]interface{}{
					"timestamp": time.Now().Format(time.RFC3339),
				},
			})
		}
	}
}

func formatSSEMessage(event string, data []byte) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, string(data)))
}

// GetClientCount returns the number of connected clients
func (m *SSEManager) GetClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
