package producers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

var ErrProducerClosed = errors.New("sarama producer is not initialized")

type SaramaProducer struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
	sent     int
}

func NewSaramaConfig(config *models.Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = "tillmetrics"
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	if config.SessionTimeoutMs > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	} else {
		saramaConfig.Consumer.Group.Session.Timeout = 45 * time.Second
	}
	return saramaConfig
}

func NewSaramaProducer(config *models.Config, logger *slog.Logger) (*SaramaProducer, error) {
	brokerList := strings.Split(config.KafkaBrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	p := NewSaramaProducerFrom(producer, logger)
	p.logger.Info("sarama producer created", "brokers", brokerList)
	return p, nil
}

// NewSaramaProducerFrom wraps an existing producer, such as a mock.
func NewSaramaProducerFrom(producer sarama.SyncProducer, logger *slog.Logger) *SaramaProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaramaProducer{producer: producer, logger: logger}
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	return s.WriteKeyedMessage(topic, "", msg)
}

// WriteKeyedMessage sends msg with a partition key; an empty key leaves
// partition choice to the producer.
func (s *SaramaProducer) WriteKeyedMessage(topic, key string, msg []byte) error {
	if s.producer == nil {
		return ErrProducerClosed
	}
	message := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	}
	if key != "" {
		message.Key = sarama.StringEncoder(key)
	}
	partition, offset, err := s.producer.SendMessage(message)
	if err != nil {
		s.logger.Error("failed to send message", "topic", topic, "error", err)
		return err
	}
	s.sent++
	s.logger.Debug("message sent", "topic", topic, "partition", partition, "offset", offset)
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	err := s.producer.Close()
	s.producer = nil
	s.logger.Info("sarama producer closed", "sent", s.sent)
	return err
}
