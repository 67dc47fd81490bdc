package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	Version       string // Kafka protocol version, e.g. "2.8.0"
}

// KafkaBus publishes events to Kafka topics and consumes them through
// a consumer group. Events are carried as JSON message values keyed by
// event ID.
type KafkaBus struct {
	client   sarama.Client
	producer sarama.SyncProducer
	group    sarama.ConsumerGroup

	mu     sync.RWMutex
	subs   map[string][]Handler
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
	log  *logger.Logger
}

// NewKafkaBus connects to the configured brokers and prepares a
// producer and consumer group.
func NewKafkaBus(cfg KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeValidation, "kafka brokers cannot be empty")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New(errors.CodeValidation, "kafka consumer group cannot be empty")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "shelf-search-bus"
	}
	if cfg.Version == "" {
		cfg.Version = "2.8.0"
	}

	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "failed to create kafka client", err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "failed to create kafka producer", err)
	}

	group, err := sarama.NewConsumerGroupFromClient(cfg.ConsumerGroup, client)
	if err != nil {
		producer.Close()
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "failed to create kafka consumer group", err)
	}

	return &KafkaBus{
		client:   client,
		producer: producer,
		group:    group,
		subs:     make(map[string][]Handler),
		stop:     make(chan struct{}),
		log:      logger.Default(),
	}, nil
}

func buildSaramaConfig(cfg KafkaConfig) (*sarama.Config, error) {
	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "invalid kafka version", err)
	}

	c := sarama.NewConfig()
	c.Version = version
	c.ClientID = cfg.ClientID
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	c.Producer.Retry.Max = 3
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Return.Errors = true
	c.Net.DialTimeout = 10 * time.Second
	c.Net.ReadTimeout = 10 * time.Second
	c.Net.WriteTimeout = 10 * time.Second
	return c, nil
}

// Publish sends the event to the topic, waiting for broker acks.
func (b *KafkaBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to marshal event", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := b.producer.SendMessage(msg); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "failed to publish to kafka", err)
	}

	return nil
}

// Subscribe registers a handler for a topic. The first subscription on
// a topic starts a consumer loop for it.
func (b *KafkaBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	first := len(b.subs[topic]) == 0
	b.subs[topic] = append(b.subs[topic], handler)

	if first {
		b.wg.Add(1)
		go b.runConsumer(topic)
	}

	return nil
}

// runConsumer drives the consumer group for one topic until Close.
// Consume returns on rebalances, so it is called in a loop.
func (b *KafkaBus) runConsumer(topic string) {
	defer b.wg.Done()

	handler := &groupHandler{bus: b, topic: topic}

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		if err := b.group.Consume(context.Background(), []string{topic}, handler); err != nil {
			b.log.WithError(err).Warn("kafka consumer error", "topic", topic)
		}

		select {
		case <-b.stop:
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

// Close stops the consumer loops and releases Kafka resources.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	b.wg.Wait()

	var errs []error
	if err := b.group.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close consumer group: %w", err))
	}
	if err := b.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close producer: %w", err))
	}
	if err := b.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close client: %w", err))
	}

	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()

	if len(errs) > 0 {
		return errors.New(errors.CodeInternal, fmt.Sprintf("errors during close: %v", errs))
	}

	return nil
}

// groupHandler implements sarama.ConsumerGroupHandler, dispatching
// decoded events to the handlers subscribed on its topic.
type groupHandler struct {
	bus   *KafkaBus
	topic string
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg := <-claim.Messages():
			if msg == nil {
				return nil
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				h.bus.log.WithError(err).Warn("failed to decode kafka event", "topic", h.topic)
				session.MarkMessage(msg, "")
				continue
			}

			h.bus.mu.RLock()
			handlers := h.bus.subs[h.topic]
			h.bus.mu.RUnlock()

			for _, handler := range handlers {
				if err := handler(session.Context(), event); err != nil {
					h.bus.log.WithError(err).Warn("event handler failed", "topic", h.topic, "event_id", event.ID)
				}
			}

			session.MarkMessage(msg, "")
		}
	}
}

// ParseKafkaBrokers splits a comma-separated broker list.
func ParseKafkaBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	parts := strings.Split(brokers, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
