package limiter

import (
	"sync"
	"time"
)

// TokenBucket 平滑补充的令牌桶。
// 令牌按 maxTokens/windowMs 的速率连续累积，封顶 maxTokens，
// 而不是按窗口整体重置，避免窗口边界处放行突发。
type TokenBucket struct {
	mu          sync.Mutex
	maxTokens   float64
	refillPerMs float64
	tokens      float64
	lastRefill  time.Time
	now         func() time.Time
}

// New 创建令牌桶，maxRequests 为窗口内最大请求数
func New(maxRequests int, window time.Duration) *TokenBucket {
	max := float64(maxRequests)
	return &TokenBucket{
		maxTokens:   max,
		refillPerMs: max / float64(window.Milliseconds()),
		tokens:      max,
		lastRefill:  time.Now(),
		now:         time.Now,
	}
}

// NewWithClock 测试用，允许注入时钟
func NewWithClock(maxRequests int, window time.Duration, now func() time.Time) *TokenBucket {
	b := New(maxRequests, window)
	b.now = now
	b.lastRefill = now()
	return b
}

// TryConsume 先补充再尝试扣减一枚令牌，不阻塞。
// 返回 false 时由调用方决定何时重试。
func (b *TokenBucket) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Tokens 当前可用令牌数（补充后），仅用于指标上报
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// refill 调用方必须持有 b.mu
func (b *TokenBucket) refill() {
	now := b.now()
	elapsedMs := float64(now.Sub(b.lastRefill).Milliseconds())
	if elapsedMs <= 0 {
		return
	}
	b.tokens = min(b.maxTokens, b.tokens+elapsedMs*b.refillPerMs)
	b.lastRefill = now
}
