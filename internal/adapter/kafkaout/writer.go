// Package kafkaout publishes generated alerts to a Kafka topic for
// downstream consumers (SMS gateways, sirens, incident dashboards).
package kafkaout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
	"github.com/ShivanshCoding36/alert-aid/internal/config"
)

// Writer produces alert documents to the configured topic.
// It implements alerts.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one alert, keyed by alert ID so consumers
// see escalations for the same alert in order.
func (w *Writer) Publish(ctx context.Context, a alerts.Alert) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an alert into a Kafka message.
func serializeToMessage(a alerts.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(a.Severity)},
			{Key: "alert_type", Value: []byte(a.Type)},
			{Key: "issued_at", Value: []byte(a.IssuedAt.Format(time.RFC3339))},
		},
	}, nil
}
