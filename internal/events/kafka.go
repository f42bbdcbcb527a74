// Package events publishes alert batch outcomes to Kafka for downstream
// auditing and delivery analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/i474232898/farm-weather-alerts/internal/alert"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher implements alert.OutcomeSink. Every per-user outcome of a
// run becomes one message keyed by user id.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a producer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish writes all outcomes of report in a single WriteMessages call.
func (p *KafkaPublisher) Publish(ctx context.Context, report alert.Report) error {
	if len(report.Outcomes) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(report.Outcomes))
	for i := range report.Outcomes {
		msg, err := serializeOutcome(report, report.Outcomes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alert outcomes: %w", err)
	}
	p.logger.Debug("alert outcomes published", "run_id", report.RunID, "messages", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// outcomeEvent is the wire shape of one published outcome.
type outcomeEvent struct {
	RunID      string    `json:"run_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Category   string    `json:"category,omitempty"`
	Language   string    `json:"language,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

func serializeOutcome(report alert.Report, o alert.Outcome) (kafkago.Message, error) {
	ev := outcomeEvent{
		RunID:      report.RunID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Stage:      string(o.Stage),
		Category:   string(o.Category),
		Language:   o.Language,
		FinishedAt: report.FinishedAt,
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert outcome: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.UserID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "status", Value: []byte(o.Status)},
		},
	}, nil
}
