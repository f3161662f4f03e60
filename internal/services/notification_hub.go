package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

const (
	notificationChannelPrefix = "notifications:user:"
	subscriberBuffer          = 16
)

// NotificationHub delivers new notifications to live subscribers of the
// owning user. With Redis every instance sees every publish; without it
// delivery stays within this process.
type NotificationHub struct {
	redis  *redis.Client
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[chan models.Notification]struct{}
}

func NewNotificationHub(client *redis.Client, logger *slog.Logger) *NotificationHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHub{
		redis:  client,
		logger: logger,
		subs:   make(map[string]map[chan models.Notification]struct{}),
	}
}

// Subscribe registers a stream for userID. The returned func unsubscribes
// and closes the channel; call it exactly once.
func (h *NotificationHub) Subscribe(userID string) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan models.Notification]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends n to its owner's subscribers, through Redis when configured.
func (h *NotificationHub) Publish(ctx context.Context, n models.Notification) error {
	if h.redis == nil {
		h.fanOut(n)
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, notificationChannelPrefix+n.User.Hex(), data).Err()
}

// fanOut never blocks: a subscriber whose buffer is full misses the event.
func (h *NotificationHub) fanOut(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[n.User.Hex()] {
		select {
		case ch <- n:
		default:
			h.logger.Warn("notification subscriber is slow, event dropped",
				slog.String("user_id", n.User.Hex()),
			)
		}
	}
}

// Run relays Redis messages to local subscribers until ctx is done. It
// returns at once when Redis is not configured.
func (h *NotificationHub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}

	backoff := time.Second
	for ctx.Err() == nil {
		err := h.relay(ctx)
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("notification subscriber error",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (h *NotificationHub) relay(ctx context.Context) error {
	pubsub := h.redis.PSubscribe(ctx, notificationChannelPrefix+"*")
	defer pubsub.Close()

	h.logger.Info("notification subscriber started", slog.String("pattern", notificationChannelPrefix+"*"))
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			h.logger.Warn("undecodable notification event", slog.String("error", err.Error()))
			continue
		}
		if got := strings.TrimPrefix(msg.Channel, notificationChannelPrefix); got != n.User.Hex() {
			h.logger.Warn("notification channel does not match its owner",
				slog.String("channel", msg.Channel),
				slog.String("user_id", n.User.Hex()),
			)
			continue
		}
		h.fanOut(n)
	}
}
