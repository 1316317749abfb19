// Package queue_publisher delivers reservation events to RabbitMQ.
// Errors are logged and returned so callers can treat publishing as
// best effort without interrupting the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/expohub/expo-reservation/internal/queue"
)

// Publisher implements booking.EventPublisher over a RabbitMQ
// connection established per publish. Connections are cheap relative
// to reservation volume and a fresh dial avoids tracking broker
// restarts.
type Publisher struct {
	url string
}

// NewPublisher builds a Publisher for the broker at url; an empty url
// falls back to the environment-resolved endpoint.
func NewPublisher(url string) *Publisher {
	if url == "" {
		url = q.BrokerURL()
	}
	return &Publisher{url: url}
}

// PublishReservationEvent sends the event to the durable
// reservation.events queue with persistent delivery.
func (p *Publisher) PublishReservationEvent(ctx context.Context, event q.ReservationEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(q.EventQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.EventQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
