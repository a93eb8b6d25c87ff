package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
	"github.com/arcade-profiles/internal/validation"
)

// SessionHandler records decoded session outcomes
type SessionHandler interface {
	// SubmitScoreBatch returns how many submissions were recorded.
	SubmitScoreBatch(ctx context.Context, submissions []domain.ScoreSubmission) int
}

// Consumer consumes session outcome messages from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       SessionHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler SessionHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages and returns once the first session is set up
func (c *Consumer) Start() error {
	c.logger.Info("starting kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
	c.logger.Info("kafka consumer ready")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// DecodeSession parses and validates one session outcome message
func DecodeSession(value []byte) (domain.ScoreSubmission, error) {
	var outcome domain.SessionOutcome
	if err := json.Unmarshal(value, &outcome); err != nil {
		return domain.ScoreSubmission{}, fmt.Errorf("decoding session outcome: %w", err)
	}
	if err := validation.Validate(outcome); err != nil {
		return domain.ScoreSubmission{}, err
	}
	return outcome.ToSubmission(), nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim batches session outcomes from a partition and hands them to the service
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	cfg := h.consumer.config
	logger := h.consumer.logger
	batch := newBatcher(h.consumer.handler, cfg.BatchSize, logger)
	batchTimer := time.NewTimer(cfg.BatchTimeout)
	defer batchTimer.Stop()

	for {
		select {
		case <-session.Context().Done():
			batch.flush()
			return nil

		case <-batchTimer.C:
			batch.flush()
			batchTimer.Reset(cfg.BatchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				batch.flush()
				return nil
			}

			submission, err := DecodeSession(message.Value)
			if err != nil {
				logger.Warn("skipping invalid session outcome",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			session.MarkMessage(message, "")
			if batch.add(submission) {
				batchTimer.Reset(cfg.BatchTimeout)
			}
		}
	}
}

// batcher collects submissions and flushes them once the batch is full
type batcher struct {
	handler SessionHandler
	size    int
	pending []domain.ScoreSubmission
	logger  *slog.Logger
}

func newBatcher(handler SessionHandler, size int, logger *slog.Logger) *batcher {
	if size <= 0 {
		size = 1
	}
	return &batcher{
		handler: handler,
		size:    size,
		pending: make([]domain.ScoreSubmission, 0, size),
		logger:  logger,
	}
}

// add queues a submission and reports whether that filled and flushed the batch
func (b *batcher) add(submission domain.ScoreSubmission) bool {
	b.pending = append(b.pending, submission)
	if len(b.pending) < b.size {
		return false
	}
	b.flush()
	return true
}

func (b *batcher) flush() {
	if len(b.pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recorded := b.handler.SubmitScoreBatch(ctx, b.pending)
	if recorded < len(b.pending) {
		b.logger.Warn("some sessions were not recorded", "batch_size", len(b.pending), "recorded", recorded)
	} else {
		b.logger.Debug("processed batch", "batch_size", len(b.pending))
	}

	b.pending = b.pending[:0]
}
