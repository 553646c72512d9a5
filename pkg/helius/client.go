package helius

import (
	"context"
	"fmt"
	"time"

	"nft-relay/internal/relay/config"
	"nft-relay/pkg/httpclient"

	"go.uber.org/zap"
)

// Client Helius webhook 管理 API 客户端
type Client struct {
	hc  *httpclient.HTTPClient
	cfg config.HeliusConfig
	tl  *zap.Logger
}

func NewClient(cfg config.HeliusConfig, tl *zap.Logger) *Client {
	hc := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout: 15 * time.Second,
	}, tl)
	return &Client{
		hc:  hc,
		cfg: cfg,
		tl:  tl,
	}
}

// registerRequest webhook 注册请求体
type registerRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
	AuthHeader       string   `json:"authHeader,omitempty"`
}

// RegisterWebhook 向 Helius 注册 NFT_SALE webhook，指向本服务的 /webhook
func (c *Client) RegisterWebhook(ctx context.Context, collectionAddress string) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("helius: api key not configured")
	}
	if c.cfg.BaseURL == "" {
		return fmt.Errorf("helius: base url not configured")
	}

	url := fmt.Sprintf("%s/v0/webhooks?api-key=%s", c.cfg.APIURL, c.cfg.APIKey)
	body := registerRequest{
		WebhookURL:       c.cfg.BaseURL + "/webhook",
		TransactionTypes: []string{"NFT_SALE"},
		AccountAddresses: []string{collectionAddress},
		WebhookType:      "enhanced",
		AuthHeader:       c.cfg.AuthToken,
	}

	var out map[string]interface{}
	resp, err := c.hc.PostJSON(ctx, url, body, nil, &out)
	if err != nil {
		return fmt.Errorf("helius register webhook: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("helius register webhook: status %d", resp.StatusCode())
	}

	c.tl.Info("Helius webhook registered", zap.Any("response", out))
	return nil
}

// TriggerTestWebhook 让 Helius 向已注册的 webhook 发送一条测试事件
func (c *Client) TriggerTestWebhook(ctx context.Context) (map[string]interface{}, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("helius: api key not configured")
	}

	url := fmt.Sprintf("%s/v0/webhooks/test?api-key=%s", c.cfg.APIURL, c.cfg.APIKey)

	var out map[string]interface{}
	resp, err := c.hc.PostJSON(ctx, url, nil, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("helius test webhook: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("helius test webhook: status %d", resp.StatusCode())
	}
	return out, nil
}
