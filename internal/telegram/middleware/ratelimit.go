package middleware

import (
	"sync"
	"time"

	"github.com/futig/datachat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// An upload re-embeds a whole file, so it spends several question tokens.
	documentCost = 5
	questionCost = 1

	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

type bucket struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware is a per-user token bucket refilled at requestsPerMinute.
type RateLimiterMiddleware struct {
	mu        sync.Mutex
	buckets   map[int64]*bucket
	capacity  float64
	perSecond float64
	now       func() time.Time
	logger    *zap.Logger
	api       Sender
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewRateLimiterMiddleware(
	requestsPerMinute int,
	logger *zap.Logger,
	api Sender,
) *RateLimiterMiddleware {
	capacity := float64(requestsPerMinute)
	if capacity < documentCost {
		capacity = documentCost
	}

	rl := &RateLimiterMiddleware{
		buckets:   make(map[int64]*bucket),
		capacity:  capacity,
		perSecond: float64(requestsPerMinute) / 60.0,
		now:       time.Now,
		logger:    logger,
		api:       api,
		stop:      make(chan struct{}),
	}

	go rl.evictInactive()

	return rl
}

func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		next(update)
		return
	}

	cost := float64(questionCost)
	if msg.Document != nil {
		cost = documentCost
	}

	allowed, warning := rl.take(msg.From.ID, cost)
	if !allowed {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", msg.From.ID),
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Float64("cost", cost),
		)
		if warning > 0 {
			rl.warn(msg.Chat.ID, warning)
		}
		return
	}

	next(update)
}

// take spends cost tokens from the user's bucket. When the request is refused,
// warning is the 1-based number of the warning to send, or 0 to stay silent.
func (rl *RateLimiterMiddleware) take(userID int64, cost float64) (allowed bool, warning int) {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[userID]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastRefill: now}
		rl.buckets[userID] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(rl.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*rl.perSecond)
	b.lastRefill = now

	if b.tokens >= cost {
		b.tokens -= cost
		b.warningsSent = 0
		return true, 0
	}

	if now.Sub(b.lastWarningAt) <= warningInterval {
		return false, 0
	}
	b.warningsSent++
	b.lastWarningAt = now
	return false, b.warningsSent
}

func (rl *RateLimiterMiddleware) warn(chatID int64, n int) {
	if _, err := rl.api.Send(tgbotapi.NewMessage(chatID, render.RateLimitWarning(n))); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

func (rl *RateLimiterMiddleware) evictInactive() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		now := rl.now()
		rl.mu.Lock()
		for userID, b := range rl.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastRefill) > inactiveThreshold
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, userID)
			}
		}
		rl.mu.Unlock()
	}
}

// Close stops the background eviction of idle users. Safe to call more than once.
func (rl *RateLimiterMiddleware) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
