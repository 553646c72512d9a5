package emitter

import (
	"context"
	"strings"
	"time"

	"nft-relay/internal/relay/model"
	"nft-relay/internal/relay/monitor"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const writeRetryCount = 3

// KafkaOutcomeEmitter 把分类结果发往 Kafka，供下游统计消费。
// brokers 未配置时 Core 不会构造该实例。
type KafkaOutcomeEmitter struct {
	mq    *kafka.Writer
	tl    *zap.Logger
	topic string
}

// outcomeEvent 外发消息体
type outcomeEvent struct {
	Kind        string `json:"kind"`
	Signature   string `json:"signature"`
	Reason      string `json:"reason,omitempty"`
	Name        string `json:"name,omitempty"`
	PriceSOL    string `json:"price_sol,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
	Time        int64  `json:"time"`
}

func NewKafkaOutcomeEmitter(brokers, topic string, tl *zap.Logger) *KafkaOutcomeEmitter {
	return &KafkaOutcomeEmitter{
		mq: &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(brokers, ",")...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		tl:    tl,
		topic: topic,
	}
}

// Emit 批量发布分类结果，失败只记录不上抛
func (e *KafkaOutcomeEmitter) Emit(ctx context.Context, outcomes []model.Outcome) {
	if len(outcomes) == 0 {
		return
	}

	now := time.Now().Unix()
	msgs := make([]kafka.Message, 0, len(outcomes))
	for i := range outcomes {
		msgs = append(msgs, e.marshalToMsg(&outcomes[i], now))
	}

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// 重试机制
	var err error
	for attempt := 0; attempt < writeRetryCount; attempt++ {
		err = e.mq.WriteMessages(writeCtx, msgs...)
		if err == nil {
			break
		}
	}
	if err != nil {
		e.tl.Warn("❌ MQ write failed, exceeded the maximum number of retries", zap.Error(err))
		monitor.OutcomeEmitterMessages.WithLabelValues("failed").Add(float64(len(msgs)))
		return
	}
	monitor.OutcomeEmitterMessages.WithLabelValues("ok").Add(float64(len(msgs)))
}

func (e *KafkaOutcomeEmitter) Close() error {
	return e.mq.Close()
}

func (e *KafkaOutcomeEmitter) marshalToMsg(o *model.Outcome, now int64) kafka.Message {
	event := outcomeEvent{
		Kind:      string(o.Kind),
		Signature: o.Signature,
		Reason:    o.Reason,
		Time:      now,
	}
	if o.Sale != nil {
		event.Name = o.Sale.Name
		event.PriceSOL = o.Sale.PriceSOL.StringFixed(2)
		event.Marketplace = o.Sale.Marketplace
	}
	jsonData, _ := sonic.Marshal(event)
	return kafka.Message{
		Key:   []byte(o.Signature),
		Value: jsonData,
	}
}
