package ratelimit

import (
	"sync"
	"time"
)

// Limiter ограничивает частоту обработки по ключу.
type Limiter interface {
	Allow(key string) bool
}

// NoopLimiter пропускает все запросы.
type NoopLimiter struct{}

func (NoopLimiter) Allow(string) bool { return true }

// MemoryLimiter — лимитер с фиксированным окном для разработки.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

// NewMemoryLimiter разрешает не более limit запросов за окно.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(key string) bool {
	if l.limit <= 0 || l.window <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{remaining: l.limit - 1, resetAt: now.Add(l.window)}
		return true
	}

	if now.After(b.resetAt) {
		b.remaining = l.limit - 1
		b.resetAt = now.Add(l.window)
		return true
	}

	if b.remaining <= 0 {
		return false
	}

	b.remaining--
	return true
}
