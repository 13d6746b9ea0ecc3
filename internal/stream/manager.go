package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State of the connection lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateReconnecting State = "reconnecting"
)

// Conn is the subset of the websocket connection the manager uses.
// Abstracted so the state machine can be driven by a fake in tests.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// DialFunc opens a websocket to the push feed.
type DialFunc func(url string) (Conn, error)

func gorillaDial(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

// KeyProvider supplies the credential bound at handshake time.
type KeyProvider interface {
	CurrentKey() string
}

// SignatureHandler consumes one pushed signature. Each frame is dispatched
// on its own goroutine so a slow enrichment never blocks later frames.
type SignatureHandler func(ctx context.Context, signature string)

// Manager owns the long-lived push connection: it (re)connects, subscribes
// every watched address, dispatches notification frames, and backs off on
// failure. The watched-address set lives here; an empty set means no
// connection exists at all, which is what structurally guarantees that no
// enrichment call is ever issued without watched addresses.
type Manager struct {
	mu        sync.Mutex
	state     State
	watched   map[string]bool
	conn      Conn
	gen       int // connection generation, stale readers check it
	attempts  int
	gaveUp    bool
	subSeq    int

	wsURL   string
	keys    KeyProvider
	handler SignatureHandler
	dial    DialFunc
	logger  *logrus.Logger

	backoff    time.Duration
	backoffCap time.Duration
	maxRetries int

	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WSURL   string
	Keys    KeyProvider
	Handler SignatureHandler
	Dial    DialFunc // defaults to gorilla/websocket

	Backoff    time.Duration
	BackoffCap time.Duration
	MaxRetries int

	Logger *logrus.Logger
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("signature handler is required")
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("key provider is required")
	}
	if cfg.Dial == nil {
		cfg.Dial = gorillaDial
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:      StateIdle,
		watched:    make(map[string]bool),
		wsURL:      cfg.WSURL,
		keys:       cfg.Keys,
		handler:    cfg.Handler,
		dial:       cfg.Dial,
		logger:     cfg.Logger,
		backoff:    cfg.Backoff,
		backoffCap: cfg.BackoffCap,
		maxRetries: cfg.MaxRetries,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// AddAddress starts watching an address. The first address brings the
// connection up; on an already-subscribed connection only the new address
// is subscribed incrementally. Malformed addresses are refused.
func (m *Manager) AddAddress(address string) bool {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		m.logger.WithField("address", address).Warn("rejecting invalid address")
		return false
	}

	m.mu.Lock()
	if m.watched[address] {
		m.mu.Unlock()
		return false
	}
	m.watched[address] = true
	m.attempts = 0
	m.gaveUp = false
	state := m.state
	conn := m.conn
	m.mu.Unlock()

	switch state {
	case StateIdle:
		go m.connect()
	case StateSubscribed:
		m.subscribeOne(conn, address)
	}
	return true
}

// RemoveAddress stops watching an address. Removing the last address tears
// the connection down entirely; removing one of several forces a full
// close+reconnect cycle, since the subscription protocol has no
// per-address unsubscribe.
func (m *Manager) RemoveAddress(address string) bool {
	m.mu.Lock()
	if !m.watched[address] {
		m.mu.Unlock()
		return false
	}
	delete(m.watched, address)
	empty := len(m.watched) == 0
	m.mu.Unlock()

	if empty {
		m.teardown()
		return true
	}
	m.dropAndReconnect("address removed")
	return true
}

// WatchedAddresses returns a snapshot of the watched set.
func (m *Manager) WatchedAddresses() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.watched))
	for a := range m.watched {
		out[a] = true
	}
	return out
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the manager holds an open, subscribed socket.
func (m *Manager) Connected() bool {
	return m.State() == StateSubscribed
}

// WatchedCount returns the number of watched addresses.
func (m *Manager) WatchedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watched)
}

// GaveUp reports whether automatic reconnects are exhausted. Retry or a
// newly added address clears it.
func (m *Manager) GaveUp() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gaveUp
}

// OnCredentialRotated drops and re-establishes the connection so the new
// key is bound at handshake time. No-op while disconnected.
func (m *Manager) OnCredentialRotated() {
	if m.Connected() {
		m.dropAndReconnect("credential rotated")
	}
}

// Retry clears the exhausted-retries flag and reconnects, for manual
// recovery after the manager gave up.
func (m *Manager) Retry() {
	m.mu.Lock()
	m.attempts = 0
	m.gaveUp = false
	empty := len(m.watched) == 0
	m.mu.Unlock()
	if !empty {
		go m.connect()
	}
}

// Stop closes the connection and stops all reconnect activity.
func (m *Manager) Stop() error {
	m.cancel()
	m.teardown()
	return nil
}

func (m *Manager) connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateSubscribed || len(m.watched) == 0 {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	url := fmt.Sprintf("%s/?api-key=%s", m.wsURL, m.keys.CurrentKey())
	conn, err := m.dial(url)
	if err != nil {
		m.logger.WithError(err).Error("connect failed")
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if gen != m.gen || m.ctx.Err() != nil {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.state = StateSubscribed
	m.attempts = 0
	// Snapshot under the same lock that publishes the Subscribed state.
	// An address added while the handshake was in flight lands in this
	// snapshot; one added after sees Subscribed and self-subscribes.
	addresses := make([]string, 0, len(m.watched))
	for a := range m.watched {
		addresses = append(addresses, a)
	}
	m.mu.Unlock()

	for _, address := range addresses {
		m.subscribeOne(conn, address)
	}

	m.logger.WithField("addresses", len(addresses)).Info("connected to push feed")
	go m.readLoop(conn, gen)
}

func (m *Manager) subscribeOne(conn Conn, address string) {
	if conn == nil {
		return
	}
	m.mu.Lock()
	m.subSeq++
	id := m.subSeq
	m.mu.Unlock()

	if err := conn.WriteJSON(newSubscribeRequest(id, address)); err != nil {
		m.logger.WithError(err).WithField("address", address).Error("subscribe failed")
		return
	}
	m.logger.WithFields(logrus.Fields{
		"address": address,
		"id":      id,
	}).Debug("subscribed address")
}

func (m *Manager) readLoop(conn Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stale := gen != m.gen
			m.mu.Unlock()
			if stale || m.ctx.Err() != nil {
				return
			}
			m.logger.WithError(err).Warn("push connection lost")
			m.closeConn()
			m.scheduleReconnect()
			return
		}

		sig, ok := parseFrame(data)
		if !ok {
			continue
		}
		// Independent processing per frame: a slow enrichment for an
		// earlier transaction must not block a later one.
		go m.handler(m.ctx, sig)
	}
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if len(m.watched) == 0 || m.ctx.Err() != nil {
		m.state = StateIdle
		m.mu.Unlock()
		return
	}
	m.attempts++
	if m.attempts > m.maxRetries {
		m.state = StateIdle
		m.gaveUp = true
		m.mu.Unlock()
		m.logger.Error("reconnect attempts exhausted, staying disconnected")
		return
	}
	m.state = StateReconnecting
	attempt := m.attempts
	delay := m.backoff << (attempt - 1)
	if delay > m.backoffCap {
		delay = m.backoffCap
	}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"attempt": attempt,
		"delay":   delay,
	}).Info("reconnecting with backoff")

	select {
	case <-m.ctx.Done():
		return
	case <-time.After(delay):
	}

	m.mu.Lock()
	if m.state == StateReconnecting {
		m.state = StateIdle
	}
	m.mu.Unlock()
	m.connect()
}

func (m *Manager) dropAndReconnect(reason string) {
	m.logger.WithField("reason", reason).Info("dropping push connection")
	m.closeConn()
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	go m.connect()
}

func (m *Manager) teardown() {
	m.closeConn()
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
}

func (m *Manager) closeConn() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.gen++
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
