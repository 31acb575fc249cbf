package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"foodgram/internal/models"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// RecipeEventsQueue carries recipe lifecycle events.
const RecipeEventsQueue = "recipe_events"

const consumerTag = "foodgram-notifier"

// Client holds the RabbitMQ connection and the publishing channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // guards channel, which is not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the
// recipe events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", RecipeEventsQueue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		RecipeEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", RecipeEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishRecipeEvent publishes event as persistent JSON on the recipe events queue.
func (c *Client) PublishRecipeEvent(ctx context.Context, event models.RecipeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err = c.channel.Publish(
		"",                // default exchange
		RecipeEventsQueue, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish recipe event: %w", err)
	}

	log.Debug().Str("type", event.Type).Uint("recipe_id", event.RecipeID).Msg("recipe event published")
	return nil
}

// RecipeEventHandler processes one decoded recipe event.
type RecipeEventHandler func(ctx context.Context, event models.RecipeEvent) error

// ConsumeRecipeEvents starts a goroutine that feeds the recipe events queue
// to handler on a dedicated channel until ctx is cancelled.
func (c *Client) ConsumeRecipeEvents(ctx context.Context, handler RecipeEventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	if err := declareQueue(ch); err != nil {
		ch.Close()
		return err
	}

	msgs, err := ch.Consume(
		RecipeEventsQueue,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().Str("queue", RecipeEventsQueue).Msg("waiting for recipe events")

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				if err := ch.Cancel(consumerTag, false); err != nil {
					log.Warn().Err(err).Msg("failed to cancel recipe event consumer")
				}
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn().Msg("recipe event delivery channel closed")
					return
				}
				handleDelivery(ctx, msg, handler)
			}
		}
	}()

	return nil
}

// handleDelivery decodes msg and acks it when handler succeeds. Undecodable
// messages and handler failures are dropped without requeue.
func handleDelivery(ctx context.Context, msg amqp.Delivery, handler RecipeEventHandler) {
	var event models.RecipeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("discarding malformed recipe event")
		if err := msg.Reject(false); err != nil {
			log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to reject message")
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Error().Err(err).Uint("recipe_id", event.RecipeID).Msg("failed to process recipe event")
		if err := msg.Nack(false, false); err != nil {
			log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to nack message")
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("failed to ack message")
	}
}
