package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder 捕获写出的状态码用于请求日志
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog 请求日志中间件
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.tl.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// verifySignature 校验共享密钥签名头。
// 未配置密钥时直接放行（默认不鉴权，部署时按需开启）。
func (s *Server) verifySignature(r *http.Request) bool {
	secret := s.cfg.Server.WebhookSecret
	if secret == "" {
		return true
	}

	sig := r.Header.Get("x-webhook-signature")
	if sig == "" {
		sig = r.Header.Get("x-signature")
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(secret)) == 1
}
