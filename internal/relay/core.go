package relay

import (
	"context"
	"time"

	"nft-relay/internal/relay/config"
	"nft-relay/internal/relay/dispatcher"
	"nft-relay/internal/relay/emitter"
	"nft-relay/internal/relay/limiter"
	"nft-relay/internal/relay/model"
	"nft-relay/internal/relay/monitor"
	"nft-relay/internal/relay/sender"
	"nft-relay/internal/relay/server"
	heliusapi "nft-relay/pkg/helius"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Core 持有 relay 的全部运行态组件。
// 限流器与去重集都由 Core 构造并按引用下发，不使用包级单例。
type Core struct {
	cfg     config.Config
	tl      *zap.Logger
	bucket  *limiter.TokenBucket
	recent  *dispatcher.RecentSet
	queue   *dispatcher.Queue
	emitter *emitter.KafkaOutcomeEmitter
	helius  *heliusapi.Client
	server  *server.Server
	metrics *monitor.MetricsServer

	runCancel context.CancelFunc
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	criteria := buildCriteria(cfg.Filter)

	bucket := limiter.New(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMs)*time.Millisecond)
	recent := dispatcher.NewRecentSet(time.Duration(cfg.Dedup.ClearIntervalSec)*time.Second, logger)

	discord := sender.NewDiscord(cfg.Discord.WebhookURL, time.Duration(cfg.Discord.Timeout)*time.Second, logger)
	queue := dispatcher.NewQueue(dispatcher.Config{
		Size:                cfg.Queue.Size,
		ThrottleRetry:       time.Duration(cfg.Queue.ThrottleRetryMs) * time.Millisecond,
		DefaultRetryAfter:   time.Duration(cfg.Queue.DefaultRetryAfterSec) * time.Second,
		MaxRateLimitRetries: cfg.Queue.MaxRateLimitRetries,
		SendTimeout:         time.Duration(cfg.Queue.SendTimeoutSec) * time.Second,
	}, logger, bucket, discord)

	// 可选组件：留空即关闭
	var kafkaEmitter *emitter.KafkaOutcomeEmitter
	var outcomeEmitter server.OutcomeEmitter
	if cfg.Kafka.Brokers != "" {
		kafkaEmitter = emitter.NewKafkaOutcomeEmitter(cfg.Kafka.Brokers, cfg.Kafka.TopicOutcomes, logger)
		outcomeEmitter = kafkaEmitter
	}

	var heliusClient *heliusapi.Client
	var testTrigger server.TestTrigger
	if cfg.Helius.APIKey != "" {
		heliusClient = heliusapi.NewClient(cfg.Helius, logger)
		testTrigger = heliusClient
	}

	srv := server.New(cfg, logger, criteria, queue, recent, outcomeEmitter, testTrigger)

	return &Core{
		cfg:     cfg,
		tl:      logger,
		bucket:  bucket,
		recent:  recent,
		queue:   queue,
		emitter: kafkaEmitter,
		helius:  heliusClient,
		server:  srv,
		metrics: monitor.NewMetricsServer(cfg.Monitor),
	}
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting relay core...")

	runCtx, cancel := context.WithCancel(ctx)
	c.runCancel = cancel

	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 启动去重窗口与投递循环
	c.recent.Start(runCtx)
	c.queue.Start(runCtx)

	// 可选：向 Helius 注册 webhook，失败不阻塞启动
	if c.helius != nil && c.cfg.Helius.RegisterWebhook {
		go func() {
			regCtx, regCancel := context.WithTimeout(runCtx, 30*time.Second)
			defer regCancel()
			if err := c.helius.RegisterWebhook(regCtx, c.cfg.Filter.MerkleTree); err != nil {
				c.tl.Warn("❌ Helius webhook registration failed", zap.Error(err))
			}
		}()
	}

	c.server.Run()
	c.tl.Info("Relay started successfully",
		zap.String("collection", c.cfg.Filter.MerkleTree),
		zap.Float64("min_sol_value", c.cfg.Filter.MinSolValue),
		zap.Int("rate_limit_max", c.cfg.RateLimit.MaxRequests))

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down relay due to context cancellation...")
}

// Stop 优雅关闭：先停止入站，再停投递循环（处理完当前消息即退出）
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping relay core...")

	if err := c.server.Stop(ctx); err != nil {
		c.tl.Warn("webhook server shutdown error", zap.Error(err))
	}

	if c.runCancel != nil {
		c.runCancel()
	}
	c.queue.Wait()

	if c.emitter != nil {
		_ = c.emitter.Close()
	}

	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.tl.Info("Relay core stopped.")
}

func buildCriteria(cfg config.FilterConfig) model.Criteria {
	traits := make([]model.Attribute, 0, len(cfg.TraitFilters))
	for _, t := range cfg.TraitFilters {
		traits = append(traits, model.Attribute{TraitType: t.TraitType, Value: t.Value})
	}
	return model.Criteria{
		CollectionID: cfg.MerkleTree,
		TraitFilters: traits,
		MinSOL:       decimal.NewFromFloat(cfg.MinSolValue),
		Marketplaces: cfg.Marketplaces,
	}
}
