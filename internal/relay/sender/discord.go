package sender

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nft-relay/internal/relay/dispatcher"
	"nft-relay/internal/relay/model"
	"nft-relay/pkg/httpclient"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Discord 将通知投递到配置的 Discord webhook。
// 2xx 视为成功，429 转换为 RateLimitedError 并带上下游的 retry-after 提示。
type Discord struct {
	hc         *httpclient.HTTPClient
	tl         *zap.Logger
	webhookURL string
}

func NewDiscord(webhookURL string, timeout time.Duration, tl *zap.Logger) *Discord {
	hc := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout: timeout,
	}, tl)
	return &Discord{
		hc:         hc,
		tl:         tl,
		webhookURL: webhookURL,
	}
}

// rateLimitBody Discord 429 响应体
type rateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"` // 秒
	Global     bool    `json:"global"`
}

func (d *Discord) Send(ctx context.Context, n model.Notification) error {
	resp, err := d.hc.PostJSON(ctx, d.webhookURL, n, nil, nil)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		d.tl.Debug("discord message sent", zap.Int("status", status), zap.String("signature", n.Signature))
		return nil
	case status == 429:
		retryAfter := d.parseRetryAfter(resp.Header().Get("Retry-After"), resp.Bytes())
		d.tl.Warn("discord rate limited",
			zap.String("signature", n.Signature),
			zap.Duration("retry_after", retryAfter))
		return &dispatcher.RateLimitedError{RetryAfter: retryAfter}
	default:
		return fmt.Errorf("discord send: unexpected status %d", status)
	}
}

// parseRetryAfter 先看 Retry-After 头，再看响应体的 retry_after 字段，单位均为秒
func (d *Discord) parseRetryAfter(header string, body []byte) time.Duration {
	if header != "" {
		if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	if len(body) > 0 {
		var rl rateLimitBody
		if err := sonic.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
			return time.Duration(rl.RetryAfter * float64(time.Second))
		}
	}
	return 0
}
