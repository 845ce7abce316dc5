// Package invalidation доставляет удалённые инвалидации ячеек через NATS.
package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Handler получает ключ инвалидированной ячейки. Вызывается из горутины NATS.
type Handler func(key world.CellKey) error

// Config содержит настройки подключения
type Config struct {
	NATSURL       string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	DedupeWindow  time.Duration
}

// Message – сообщение об инвалидации ячейки
type Message struct {
	CX        int       `json:"cx"`
	CZ        int       `json:"cz"`
	Reason    string    `json:"reason,omitempty"`
	NodeID    string    `json:"node_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key возвращает ключ ячейки сообщения
func (m Message) Key() world.CellKey {
	return world.CellKey{X: m.CX, Z: m.CZ}
}

// DecodeMessage разбирает JSON-сообщение
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal invalidation message: %w", err)
	}
	return msg, nil
}

// Bus публикует и принимает инвалидации ячеек.
//
// Особенности:
// - Автоматическое переподключение при сбоях
// - Дедупликация по ключу ячейки в пределах окна
// - Собственные сообщения узла игнорируются
type Bus struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	logger  *logging.Logger

	subscription *nats.Subscription
	handler      Handler
	dedupe       *dedupe

	published atomic.Int64
	received  atomic.Int64
	errors    atomic.Int64
}

// Connect подключается к NATS
func Connect(cfg Config, logger *logging.Logger) (*Bus, error) {
	if cfg.Subject == "" {
		cfg.Subject = "chunkstream.invalidate"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.DedupeWindow == 0 {
		cfg.DedupeWindow = time.Second
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS invalidation bus connected: %s (subject: %s)", cfg.NATSURL, cfg.Subject)
	return &Bus{
		conn:    conn,
		subject: cfg.Subject,
		nodeID:  uuid.NewString(),
		logger:  logger,
		dedupe:  newDedupe(cfg.DedupeWindow),
	}, nil
}

// Publish рассылает инвалидацию ячейки другим узлам
func (b *Bus) Publish(key world.CellKey, reason string) error {
	data, err := json.Marshal(Message{
		CX:        key.X,
		CZ:        key.Z,
		Reason:    reason,
		NodeID:    b.nodeID,
		Timestamp: time.Now(),
	})
	if err != nil {
		b.errors.Add(1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := b.conn.Publish(b.subject, data); err != nil {
		b.errors.Add(1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	b.published.Add(1)
	return nil
}

// Subscribe подписывается на инвалидации до отмены ctx
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	if b.subscription != nil {
		return errors.New("already subscribed to invalidations")
	}
	b.handler = handler

	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		b.handle(msg.Data, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	b.subscription = sub

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			b.logger.Error("Failed to unsubscribe from invalidations: %v", err)
		}
	}()

	b.logger.Info("Subscribed to cell invalidations on subject: %s", b.subject)
	return nil
}

func (b *Bus) handle(data []byte, now time.Time) {
	b.received.Add(1)

	msg, err := DecodeMessage(data)
	if err != nil {
		b.errors.Add(1)
		b.logger.Error("%v", err)
		return
	}
	if msg.NodeID != "" && msg.NodeID == b.nodeID {
		return
	}
	key := msg.Key()
	if !b.dedupe.admit(key, now) {
		b.logger.Debug("Ignoring duplicate invalidation for cell %s", key)
		return
	}

	if b.handler != nil {
		if err := b.handler(key); err != nil {
			b.errors.Add(1)
			b.logger.Error("Invalidation handler failed for cell %s: %v", key, err)
		}
	}
}

// Metrics возвращает счётчики шины
func (b *Bus) Metrics() map[string]int64 {
	return map[string]int64{
		"published_count": b.published.Load(),
		"received_count":  b.received.Load(),
		"errors_count":    b.errors.Load(),
	}
}

// Close закрывает соединение с NATS
func (b *Bus) Close() {
	if b.subscription != nil {
		_ = b.subscription.Unsubscribe()
	}
	b.conn.Close()
}

// dedupe отбрасывает повторные инвалидации одной ячейки в пределах окна
type dedupe struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[world.CellKey]time.Time
}

func newDedupe(window time.Duration) *dedupe {
	return &dedupe{window: window, seen: make(map[world.CellKey]time.Time)}
}

func (d *dedupe) admit(key world.CellKey, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now

	// Старые записи чистим на ходу
	for k, t := range d.seen {
		if now.Sub(t) >= d.window {
			delete(d.seen, k)
		}
	}
	return true
}
