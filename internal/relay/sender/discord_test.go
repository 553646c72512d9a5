package sender

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nft-relay/internal/relay/dispatcher"
	"nft-relay/internal/relay/model"

	"go.uber.org/zap"
)

func testNotification() model.Notification {
	return model.Notification{Signature: "sig-1", Content: "hello"}
}

func TestSendSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %s", ct)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 2*time.Second, zap.NewNop())
	if err := d.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}

func TestSendRateLimitedHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 2*time.Second, zap.NewNop())
	err := d.Send(context.Background(), testNotification())

	var rl *dispatcher.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 2500*time.Millisecond {
		t.Errorf("retry after = %s, want 2.5s", rl.RetryAfter)
	}
}

func TestSendRateLimitedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":1.5,"global":false}`))
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 2*time.Second, zap.NewNop())
	err := d.Send(context.Background(), testNotification())

	var rl *dispatcher.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 1500*time.Millisecond {
		t.Errorf("retry after = %s, want 1.5s", rl.RetryAfter)
	}
}

func TestSendOtherFailureIsNotRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 2*time.Second, zap.NewNop())
	err := d.Send(context.Background(), testNotification())

	if err == nil {
		t.Fatal("expected error on 500")
	}
	var rl *dispatcher.RateLimitedError
	if errors.As(err, &rl) {
		t.Fatal("500 must not be classified as rate limited")
	}
}
