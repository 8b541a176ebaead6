package notifications

import (
	"context"
	"fmt"
	"time"

	"tabour/pkg/logger"

	"github.com/IBM/sarama"
)

// Worker consumes the SMS topic and hands each message to the
// provider, settling the delivery log as it goes.
type Worker struct {
	consumerGroup sarama.ConsumerGroup
	topics        []string
	provider      Provider
	repo          Repository
	logger        *logger.Logger
	cancel        context.CancelFunc
}

func NewWorker(brokers []string, groupID, topic string, provider Provider, repo Repository, log *logger.Logger) (*Worker, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Session.Timeout = 30 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Offsets.AutoCommit.Enable = true
	config.Consumer.Offsets.AutoCommit.Interval = time.Second

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sms consumer group: %w", err)
	}

	return &Worker{
		consumerGroup: consumerGroup,
		topics:        []string{topic},
		provider:      provider,
		repo:          repo,
		logger:        log,
	}, nil
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for err := range w.consumerGroup.Errors() {
			w.logger.WithError(err).Warn("sms consumer group error")
		}
	}()

	go func() {
		handler := &smsHandler{worker: w}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := w.consumerGroup.Consume(ctx, w.topics, handler); err != nil {
					w.logger.WithError(err).Warn("sms consumer error")
					time.Sleep(time.Second)
				}
			}
		}
	}()
}

func (w *Worker) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.consumerGroup.Close()
}

type smsHandler struct {
	worker *Worker
}

func (h *smsHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *smsHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *smsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.worker.deliver(session.Context(), message.Value)
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, payload []byte) {
	msg, err := SMSMessageFromJSON(payload)
	if err != nil {
		w.logger.WithError(err).Warn("dropping malformed sms message")
		return
	}

	if err := w.provider.Send(ctx, msg.Phone, msg.Message); err != nil {
		w.logger.LogNotificationFailure(ctx, msg.Phone, err)
		if markErr := w.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
			w.logger.WithError(markErr).Warn("failed to mark sms record failed")
		}
		return
	}

	if err := w.repo.MarkSent(ctx, msg.ID); err != nil {
		w.logger.WithError(err).Warn("failed to mark sms record sent")
	}
}
