package helius

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nft-relay/internal/relay/config"

	"go.uber.org/zap"
)

func TestTriggerTestWebhook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/webhooks/test" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("api-key") != "test-key" {
			t.Errorf("api-key = %s", r.URL.Query().Get("api-key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := NewClient(config.HeliusConfig{APIKey: "test-key", APIURL: ts.URL}, zap.NewNop())
	out, err := c.TriggerTestWebhook(context.Background())
	if err != nil {
		t.Fatalf("trigger test: %v", err)
	}
	if out["status"] != "ok" {
		t.Errorf("out = %+v", out)
	}
}

func TestTriggerTestWebhookWithoutKey(t *testing.T) {
	c := NewClient(config.HeliusConfig{}, zap.NewNop())
	if _, err := c.TriggerTestWebhook(context.Background()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestRegisterWebhook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/webhooks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"webhookID":"wh-1"}`))
	}))
	defer ts.Close()

	c := NewClient(config.HeliusConfig{
		APIKey:  "test-key",
		APIURL:  ts.URL,
		BaseURL: "https://relay.example.com",
	}, zap.NewNop())

	if err := c.RegisterWebhook(context.Background(), "tree-addr"); err != nil {
		t.Fatalf("register: %v", err)
	}
}
