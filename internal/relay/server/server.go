package server

import (
	"context"
	"net/http"
	"time"

	"nft-relay/internal/relay/config"
	"nft-relay/internal/relay/dispatcher"
	"nft-relay/internal/relay/model"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Notifier 投递队列入口
type Notifier interface {
	Enqueue(n model.Notification) bool
}

// OutcomeEmitter 可选的分类结果外发
type OutcomeEmitter interface {
	Emit(ctx context.Context, outcomes []model.Outcome)
}

// TestTrigger 触发上游发送测试 webhook
type TestTrigger interface {
	TriggerTestWebhook(ctx context.Context) (map[string]interface{}, error)
}

// Server 入站 webhook 服务。只负责解包、鉴权与分发，
// 分类与投递结果不回传给上游（响应先于投递完成）。
type Server struct {
	cfg      config.Config
	tl       *zap.Logger
	criteria model.Criteria
	queue    Notifier
	recent   *dispatcher.RecentSet
	emitter  OutcomeEmitter // 可为 nil
	helius   TestTrigger    // 可为 nil
	srv      *http.Server
}

func New(cfg config.Config, tl *zap.Logger, criteria model.Criteria, queue Notifier, recent *dispatcher.RecentSet, emitter OutcomeEmitter, helius TestTrigger) *Server {
	s := &Server{
		cfg:      cfg,
		tl:       tl,
		criteria: criteria,
		queue:    queue,
		recent:   recent,
		emitter:  emitter,
		helius:   helius,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/trigger-test", s.handleTriggerTest)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleHealth)

	s.srv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

// Handler 暴露给测试用
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run 启动服务
func (s *Server) Run() {
	go func() {
		s.tl.Info("webhook server listening", zap.String("addr", s.cfg.Server.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.tl.Error("❌ webhook server exited", zap.Error(err))
		}
	}()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.srv.SetKeepAlivesEnabled(false)
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := sonic.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
