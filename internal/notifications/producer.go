package notifications

import (
	"context"
	"fmt"
	"time"

	"tabour/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Dispatcher queues a customer-facing SMS. Implementations must be
// best effort: a dispatch failure is reported to the caller for
// logging but must never roll back the state change that triggered it.
type Dispatcher interface {
	Send(ctx context.Context, phone, message string) error
	Close() error
}

// KafkaDispatcher publishes messages to the SMS topic and logs a
// queued record. The worker consumes the topic and settles each
// record to sent or failed.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	repo     Repository
	logger   *logger.Logger
}

func NewKafkaDispatcher(brokers []string, topic string, repo Repository, log *logger.Logger) (*KafkaDispatcher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	// Hash by phone so one customer's messages stay ordered
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sms producer: %w", err)
	}

	return &KafkaDispatcher{
		producer: producer,
		topic:    topic,
		repo:     repo,
		logger:   log,
	}, nil
}

func (d *KafkaDispatcher) Send(ctx context.Context, phone, message string) error {
	msg := &SMSMessage{
		ID:        uuid.New(),
		Phone:     phone,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	record := &SMSRecord{
		ID:      msg.ID,
		Phone:   phone,
		Message: message,
		Status:  StatusQueued,
	}
	if err := d.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to log sms record: %w", err)
	}

	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal sms message: %w", err)
	}

	_, _, err = d.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     d.topic,
		Key:       sarama.StringEncoder(phone),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: msg.CreatedAt,
	})
	if err != nil {
		if markErr := d.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
			d.logger.WithError(markErr).Warn("failed to mark sms record failed")
		}
		return fmt.Errorf("failed to publish sms message: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}

// DirectDispatcher calls the provider inline. Used when the broker is
// disabled, mostly in development.
type DirectDispatcher struct {
	provider Provider
	repo     Repository
	logger   *logger.Logger
}

func NewDirectDispatcher(provider Provider, repo Repository, log *logger.Logger) *DirectDispatcher {
	return &DirectDispatcher{
		provider: provider,
		repo:     repo,
		logger:   log,
	}
}

func (d *DirectDispatcher) Send(ctx context.Context, phone, message string) error {
	record := &SMSRecord{
		ID:      uuid.New(),
		Phone:   phone,
		Message: message,
		Status:  StatusQueued,
	}
	if err := d.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to log sms record: %w", err)
	}

	if err := d.provider.Send(ctx, phone, message); err != nil {
		if markErr := d.repo.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			d.logger.WithError(markErr).Warn("failed to mark sms record failed")
		}
		return err
	}
	return d.repo.MarkSent(ctx, record.ID)
}

func (d *DirectDispatcher) Close() error {
	return nil
}
