package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nft-relay/internal/relay/model"
	"nft-relay/internal/relay/monitor"

	"go.uber.org/zap"
)

// TokenSource 出站令牌来源
type TokenSource interface {
	TryConsume() bool
}

// Sender 实际执行投递的外部发送器
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// RateLimitedError 下游返回 429 时由 Sender 产出，RetryAfter 为下游给的等待提示
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("downstream rate limited, retry after %s", e.RetryAfter)
}

// Config 队列行为参数
type Config struct {
	Size                int           // 队列容量，满则丢弃新消息
	ThrottleRetry       time.Duration // 本地令牌耗尽后的重试间隔
	DefaultRetryAfter   time.Duration // 429 未带提示时的默认等待
	MaxRateLimitRetries int           // 单条消息 429 重试上限
	SendTimeout         time.Duration
}

// Queue 出站通知队列。单消费者循环保证严格 FIFO：
// 队首消息在令牌不足或被下游限流时留在原位重试，后面的消息不会越过它。
type Queue struct {
	cfg    Config
	tl     *zap.Logger
	bucket TokenSource
	sender Sender
	items  chan model.Notification
	depth  atomic.Int64 // 含被消费循环持有的队首，len(items) 会漏掉它
	wg     sync.WaitGroup
}

type headItem struct {
	n         model.Notification
	rlRetries int
}

func NewQueue(cfg Config, tl *zap.Logger, bucket TokenSource, sender Sender) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	if cfg.ThrottleRetry <= 0 {
		cfg.ThrottleRetry = time.Second
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 8 * time.Second
	}
	return &Queue{
		cfg:    cfg,
		tl:     tl,
		bucket: bucket,
		sender: sender,
		items:  make(chan model.Notification, cfg.Size),
	}
}

// Enqueue 追加到队尾，不阻塞；队列满时丢弃并计数
func (q *Queue) Enqueue(n model.Notification) bool {
	select {
	case q.items <- n:
		monitor.DeliveryQueueDepth.Set(float64(q.depth.Add(1)))
		return true
	default:
		q.tl.Warn("❌ delivery queue full, dropping notification", zap.String("signature", n.Signature))
		monitor.NotificationsDropped.WithLabelValues("queue_full").Inc()
		return false
	}
}

// Start 启动消费循环
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.run(ctx)
}

// Wait 等待消费循环退出（当前消息处理完即返回，不会重复投递）
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()

	var head *headItem
	for {
		if head == nil {
			// 队列空时阻塞在 channel 上，不轮询
			select {
			case <-ctx.Done():
				return
			case n := <-q.items:
				head = &headItem{n: n}
			}
		}

		if !q.bucket.TryConsume() {
			// 令牌不足：消息留在队首，到点重试，后续消息原地等待
			monitor.DeliveryRetries.WithLabelValues("throttled").Inc()
			if !q.sleep(ctx, q.cfg.ThrottleRetry) {
				return
			}
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, q.cfg.SendTimeout)
		start := time.Now()
		err := q.sender.Send(sendCtx, head.n)
		cancel()
		monitor.DeliveryDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			monitor.NotificationsDelivered.Inc()
			q.tl.Debug("notification delivered", zap.String("signature", head.n.Signature))
			head = q.headDone()
			continue
		}

		var rl *RateLimitedError
		if errors.As(err, &rl) {
			if head.rlRetries >= q.cfg.MaxRateLimitRetries {
				q.tl.Warn("❌ dropping notification after repeated rate limiting",
					zap.String("signature", head.n.Signature),
					zap.Int("retries", head.rlRetries))
				monitor.NotificationsDropped.WithLabelValues("retry_exhausted").Inc()
				head = q.headDone()
				continue
			}
			head.rlRetries++
			delay := rl.RetryAfter
			if delay <= 0 {
				delay = q.cfg.DefaultRetryAfter
			}
			q.tl.Warn("downstream rate limited, retry scheduled",
				zap.String("signature", head.n.Signature),
				zap.Duration("delay", delay))
			monitor.DeliveryRetries.WithLabelValues("rate_limited").Inc()
			if !q.sleep(ctx, delay) {
				return
			}
			continue
		}

		// 其他投递错误不重试，记录后继续处理下一条
		q.tl.Warn("❌ notification delivery failed, dropping",
			zap.String("signature", head.n.Signature),
			zap.Error(err))
		monitor.NotificationsDropped.WithLabelValues("delivery_error").Inc()
		head = q.headDone()
	}
}

// headDone 队首消息已投递或丢弃，更新深度指标并释放队首
func (q *Queue) headDone() *headItem {
	monitor.DeliveryQueueDepth.Set(float64(q.depth.Add(-1)))
	return nil
}

// sleep 可取消的等待，返回 false 表示循环应退出
func (q *Queue) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return false
	case <-timer.C:
		return true
	}
}
