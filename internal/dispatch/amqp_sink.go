package dispatch

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// AMQPSink publishes events to a message broker exchange so downstream
// pipelines (warehousing, alerting) can consume them independently of the
// web service. Routing keys are "analytics.<category>".
type AMQPSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// amqpEnvelope is the wire shape published to the exchange.
type amqpEnvelope struct {
	Event      string         `json:"event"`
	Category   string         `json:"category"`
	Action     string         `json:"action"`
	Label      string         `json:"label,omitempty"`
	Value      float64        `json:"value,omitempty"`
	VisitorID  string         `json:"visitor_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewAMQPSink dials the broker and declares the exchange. Callers skip
// registration entirely when no broker URL is configured.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPSink{conn: conn, channel: channel, exchange: exchange}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Deliver(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(amqpEnvelope{
		Event:      event.Name,
		Category:   event.Category,
		Action:     event.Action,
		Label:      event.Label,
		Value:      event.Value,
		VisitorID:  event.VisitorID,
		Properties: event.Properties,
		Timestamp:  event.Timestamp,
	})
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}

	err = s.channel.PublishWithContext(ctx, s.exchange, "analytics."+event.Category, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   event.Timestamp,
		Body:        body,
	})
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}
	return nil
}

// Close releases the broker channel and connection.
func (s *AMQPSink) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
