package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/pkg/rabbitmq"
)

const (
	RoutingAssignmentOpened = "assignment.opened"
	RoutingAssignmentClosed = "assignment.closed"
	RoutingSubmissionGraded = "submission.graded"
)

// EventPublisher publishes coursework events. Callers treat publish errors as
// non-fatal and only log them.
type EventPublisher interface {
	PublishAssignmentOpened(ctx context.Context, event *models.AssignmentOpenedEvent) error
	PublishAssignmentClosed(ctx context.Context, event *models.AssignmentClosedEvent) error
	PublishSubmissionGraded(ctx context.Context, event *models.SubmissionGradedEvent) error
	Close() error
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   zerolog.Logger
}

func NewRabbitMQPublisher(url, exchange string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := rabbitmq.NewConnection(url)
	if err != nil {
		return nil, err
	}

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := rabbitmq.DeclareTopicExchange(channel, exchange); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *rabbitMQPublisher) PublishAssignmentOpened(ctx context.Context, event *models.AssignmentOpenedEvent) error {
	return p.publish(ctx, RoutingAssignmentOpened, event.AssignmentID, event)
}

func (p *rabbitMQPublisher) PublishAssignmentClosed(ctx context.Context, event *models.AssignmentClosedEvent) error {
	return p.publish(ctx, RoutingAssignmentClosed, event.AssignmentID, event)
}

func (p *rabbitMQPublisher) PublishSubmissionGraded(ctx context.Context, event *models.SubmissionGradedEvent) error {
	return p.publish(ctx, RoutingSubmissionGraded, event.SubmissionID, event)
}

func (p *rabbitMQPublisher) publish(ctx context.Context, routingKey, messageID string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	p.logger.Debug().
		Str("routing_key", routingKey).
		Str("message_id", messageID).
		Msg("Event published")

	return nil
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

// NopPublisher is used when RabbitMQ is disabled or unreachable at startup.
type NopPublisher struct{}

func (NopPublisher) PublishAssignmentOpened(context.Context, *models.AssignmentOpenedEvent) error {
	return nil
}

func (NopPublisher) PublishAssignmentClosed(context.Context, *models.AssignmentClosedEvent) error {
	return nil
}

func (NopPublisher) PublishSubmissionGraded(context.Context, *models.SubmissionGradedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
