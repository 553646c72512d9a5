package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"nft-relay/internal/relay/classifier"
	"nft-relay/internal/relay/formatter"
	"nft-relay/internal/relay/model"
	"nft-relay/internal/relay/monitor"
	"nft-relay/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logger.StartSpanWithRequest(r, "server", "webhook")
	defer span.End()
	tl := logger.WithTrace(ctx, s.tl)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		monitor.WebhookRequestsReceived.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "unreadable body"})
		return
	}

	if !s.verifySignature(r) {
		tl.Warn("invalid webhook signature")
		monitor.WebhookRequestsReceived.WithLabelValues("unauthorized").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "invalid webhook signature"})
		return
	}

	items, isTest, ok := decodeBatch(body)
	if !ok {
		monitor.WebhookRequestsReceived.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid webhook payload structure"})
		return
	}

	if isTest {
		tl.Info("test webhook received, sending confirmation")
		monitor.WebhookRequestsReceived.WithLabelValues("test").Inc()
		if s.queue.Enqueue(formatter.TestConfirmation()) {
			monitor.NotificationsEnqueued.WithLabelValues("test").Inc()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "type": "test"})
		return
	}

	monitor.WebhookRequestsReceived.WithLabelValues("ok").Inc()
	monitor.WebhookBatchSize.Observe(float64(len(items)))

	outcomes := classifyItems(items, s.criteria)
	matched := 0
	for i := range outcomes {
		o := &outcomes[i]
		monitor.ClassificationOutcomes.WithLabelValues(string(o.Kind)).Inc()

		switch o.Kind {
		case model.OutcomeMatched:
			matched++
			if s.suppressed(o.Signature, tl) {
				continue
			}
			if s.queue.Enqueue(formatter.RichSale(o.Sale)) {
				s.remember(o.Signature)
				monitor.NotificationsEnqueued.WithLabelValues("rich").Inc()
			}
		case model.OutcomeOtherSale:
			if s.suppressed(o.Signature, tl) {
				continue
			}
			if s.queue.Enqueue(formatter.SimpleSale(o.Sale)) {
				s.remember(o.Signature)
				monitor.NotificationsEnqueued.WithLabelValues("simple").Inc()
			}
		case model.OutcomeSkipped:
			tl.Debug("event skipped", zap.String("signature", o.Signature), zap.String("reason", o.Reason))
		case model.OutcomeErrored:
			tl.Warn("event classification failed", zap.String("signature", o.Signature), zap.String("reason", o.Reason))
		}
	}

	tl.Info("webhook batch processed",
		zap.Int("total", len(outcomes)),
		zap.Int("matched", matched))

	if s.emitter != nil {
		// 外发不挡上游回执，Kafka 不可达时的重试耗时与 ack 无关
		emitCtx := context.WithoutCancel(ctx)
		go s.emitter.Emit(emitCtx, outcomes)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "processed": matched})
}

// classifyItems 可解码的事件走分类规则链，坏元素原位产出 errored，顺序与输入一致
func classifyItems(items []batchItem, c model.Criteria) []model.Outcome {
	txs := make([]model.Transaction, 0, len(items))
	for i := range items {
		if items[i].err == nil {
			txs = append(txs, items[i].tx)
		}
	}
	classified := classifier.Classify(txs, c)

	outcomes := make([]model.Outcome, 0, len(items))
	ci := 0
	for i := range items {
		if items[i].err != nil {
			outcomes = append(outcomes, model.Outcome{
				Kind:   model.OutcomeErrored,
				Reason: "undecodable event: " + items[i].err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, classified[ci])
		ci++
	}
	return outcomes
}

// suppressed 查去重窗口。登记放在入队成功之后（remember），
// 入队被丢弃的销售不占窗口，上游重投时还有机会送达。
func (s *Server) suppressed(signature string, tl *zap.Logger) bool {
	if signature == "" || s.recent == nil {
		return false
	}
	if s.recent.Seen(signature) {
		tl.Debug("duplicate delivery suppressed", zap.String("signature", signature))
		monitor.NotificationsSuppressed.Inc()
		return true
	}
	return false
}

func (s *Server) remember(signature string) {
	if signature == "" || s.recent == nil {
		return
	}
	s.recent.Mark(signature)
}

func (s *Server) handleTriggerTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.helius == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "helius api not configured"})
		return
	}

	s.tl.Info("Sending test webhook to Helius")
	result, err := s.helius.TriggerTestWebhook(r.Context())
	if err != nil {
		s.tl.Error("❌ trigger test webhook failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": result})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Server operational at "+time.Now().UTC().Format(time.RFC3339))
}

// webhookEnvelope 对象形态的 payload：data 包事件数组，或者本身就是测试标记
type webhookEnvelope struct {
	Data        []json.RawMessage `json:"data"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Source      string            `json:"source"`
	WebhookID   string            `json:"webhookId"`
}

// batchItem 单条入站事件的解码结果，err 非空表示该元素无法解码
type batchItem struct {
	tx  model.Transaction
	err error
}

// decodeBatch 支持三种 body 形态：裸事件数组、带 data 字段的对象、测试标记对象。
// 数组逐条解码，单个坏元素不拖垮整批；三种形态都不匹配时返回 ok=false（400）。
func decodeBatch(body []byte) (items []batchItem, isTest bool, ok bool) {
	var raws []json.RawMessage
	if err := sonic.Unmarshal(body, &raws); err == nil {
		return decodeElements(raws)
	}

	var env webhookEnvelope
	if err := sonic.Unmarshal(body, &env); err == nil {
		marker := model.Transaction{Type: env.Type, Description: env.Description, Source: env.Source}
		if marker.IsTestMarker() || (env.WebhookID != "" && strings.EqualFold(env.Type, "test")) {
			return nil, true, true
		}
		if env.Data != nil {
			return decodeElements(env.Data)
		}
	}

	return nil, false, false
}

func decodeElements(raws []json.RawMessage) (items []batchItem, isTest bool, ok bool) {
	items = make([]batchItem, 0, len(raws))
	for _, raw := range raws {
		var tx model.Transaction
		if err := sonic.Unmarshal(raw, &tx); err != nil {
			items = append(items, batchItem{err: err})
			continue
		}
		if tx.IsTestMarker() {
			return nil, true, true
		}
		items = append(items, batchItem{tx: tx})
	}
	return items, false, true
}
