package kafka

import (
	"context"

	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
)

// MessageProducer publishes persisted chat messages to the analytics
// firehose. Production is best-effort: callers log failures and move on.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, msg *domain.Message) error
	Close() error
}

// NopProducer discards everything. Used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) ProduceMessage(ctx context.Context, msg *domain.Message) error { return nil }
func (NopProducer) Close() error                                                  { return nil }
