// Package notifier holds the notification sink implementations. The services
// only know the Emit contract; delivery itself is someone else's problem.
package notifier

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/marwo/buddyfit/pkg/cleanup"
	"github.com/marwo/buddyfit/pkg/entity"
	"github.com/segmentio/kafka-go"
)

type Kafka struct {
	writer *kafka.Writer
}

// NewKafka builds the sink over an async writer: Emit enqueues and returns
// without waiting for broker acknowledgement.
func NewKafka(brokers []string, topic string) *Kafka {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		Async:        true,
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing kafka writer",
		F:    writer.Close,
	})
	return &Kafka{
		writer: writer,
	}
}

func (k *Kafka) Emit(ctx context.Context, event entity.NotificationEvent) error {
	payload, err := sonic.ConfigDefault.Marshal(event)
	if err != nil {
		return errors.New("encoding notification error: " + err.Error())
	}
	// Keyed by user so one user's notifications stay ordered
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
	})
	if err != nil {
		return errors.New("writing notification error: " + err.Error())
	}
	return nil
}
