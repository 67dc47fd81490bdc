package bus

import (
	"fmt"
	"strings"

	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// NewBus creates a new Bus instance based on the configuration. When an
// event log path is configured, the bus is wrapped so every published
// event is also journaled to disk.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	inner, err := newBus(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EventLogPath == "" {
		return inner, nil
	}

	journal, err := NewEventLog(cfg.EventLogPath)
	if err != nil {
		inner.Close()
		return nil, err
	}

	return NewLoggedBus(inner, journal, log), nil
}

func newBus(cfg config.BusConfig) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		consumerGroup := cfg.KafkaGroup
		if consumerGroup == "" {
			consumerGroup = "shelf-search"
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: consumerGroup,
			ClientID:      "shelf-search-bus",
		})

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
