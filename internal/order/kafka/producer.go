package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// Writer is satisfied by the shared kafka producer.
type Writer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// DefaultPublishTimeout bounds a single publish so a slow broker cannot hold
// up the webhook acknowledgement.
const DefaultPublishTimeout = 2 * time.Second

// Publisher streams order lifecycle events and reconciliation alerts.
type Publisher struct {
	writer  Writer
	topics  config.TopicConfig
	logger  *logger.Logger
	Timeout time.Duration
}

func NewPublisher(writer Writer, topics config.TopicConfig, log *logger.Logger) *Publisher {
	return &Publisher{writer: writer, topics: topics, logger: log, Timeout: DefaultPublishTimeout}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, event models.OrderEvent) error {
	return p.publish(ctx, p.topics.OrderCreated, event.OrderID, event)
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, event models.OrderEvent) error {
	return p.publish(ctx, p.topics.OrderPaid, event.OrderID, event)
}

func (p *Publisher) PublishOrderFailed(ctx context.Context, event models.OrderEvent) error {
	return p.publish(ctx, p.topics.OrderFailed, event.OrderID, event)
}

func (p *Publisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	key := alert.OrderID
	if key == "" {
		key = alert.TransactionRef
	}
	return p.publish(ctx, p.topics.Alerts, key, alert)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	if err := p.writer.Publish(ctx, topic, key, value); err != nil {
		return err
	}
	p.logger.LogKafka("PUBLISH", topic, key)
	return nil
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, models.OrderEvent) error { return nil }
func (NopPublisher) PublishOrderPaid(context.Context, models.OrderEvent) error    { return nil }
func (NopPublisher) PublishOrderFailed(context.Context, models.OrderEvent) error  { return nil }
func (NopPublisher) PublishAlert(context.Context, models.Alert) error             { return nil }
