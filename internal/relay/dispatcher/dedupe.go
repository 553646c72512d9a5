package dispatcher

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// RecentSet 最近投递过的交易签名集合，防止同一事件在窗口内重复投递。
// 粗粒度窗口：整集定期清空，不做逐项 TTL。
type RecentSet struct {
	tl       *zap.Logger
	store    *cache.Cache
	interval time.Duration
}

func NewRecentSet(interval time.Duration, tl *zap.Logger) *RecentSet {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RecentSet{
		tl:       tl,
		store:    cache.New(cache.NoExpiration, 0),
		interval: interval,
	}
}

// Start 启动定期清空
func (s *RecentSet) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := s.store.ItemCount()
				s.store.Flush()
				if n > 0 {
					s.tl.Debug("recent delivery set cleared", zap.Int("entries", n))
				}
			}
		}
	}()
}

// Seen 签名是否在当前窗口内出现过
func (s *RecentSet) Seen(signature string) bool {
	_, ok := s.store.Get(signature)
	return ok
}

// Mark 记录签名
func (s *RecentSet) Mark(signature string) {
	s.store.Set(signature, struct{}{}, cache.NoExpiration)
}
