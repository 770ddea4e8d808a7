package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ximepaparella/gifty-api/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OrderCreatedMessage is the fulfillment job payload published when an order
// has been persisted
type OrderCreatedMessage struct {
	OrderID   uuid.UUID `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends fulfillment jobs onto the queue
type Publisher interface {
	PublishOrderCreated(ctx context.Context, orderID uuid.UUID) error
	Close() error
}

type servicebusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewPublisher creates a new Service Bus publisher for the fulfillment queue
func NewPublisher(cfg config.ServiceBusConfig) (Publisher, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &servicebusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// PublishOrderCreated enqueues a fulfillment job for the given order
func (p *servicebusPublisher) PublishOrderCreated(ctx context.Context, orderID uuid.UUID) error {
	body, err := json.Marshal(OrderCreatedMessage{
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal order created message")
	}

	msg := &azservicebus.Message{
		Body: body,
		ApplicationProperties: map[string]interface{}{
			"event": "order.created",
			"time":  time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrap(err, "failed to publish order created message")
	}
	return nil
}

// Close closes the sender and client
func (p *servicebusPublisher) Close() error {
	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

// HandlerFunc processes one received fulfillment message
type HandlerFunc func(ctx context.Context, msg *azservicebus.ReceivedMessage) error

// Processor consumes fulfillment jobs from the queue
type Processor struct {
	client    *azservicebus.Client
	receiver  *azservicebus.Receiver
	queueName string
}

// NewProcessor creates a new Service Bus processor for the fulfillment queue
func NewProcessor(cfg config.ServiceBusConfig) (*Processor, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus receiver")
	}

	return &Processor{
		client:    client,
		receiver:  receiver,
		queueName: cfg.QueueName,
	}, nil
}

// ProcessMessages receives and handles messages until the context is
// cancelled. A failed handler abandons the message so the queue redelivers
// it; the reconciliation sweep is the backstop after delivery attempts are
// exhausted.
func (p *Processor) ProcessMessages(ctx context.Context, handler HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		messages, err := p.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Failed to receive Service Bus messages")
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			if err := handler(ctx, msg); err != nil {
				log.Error().
					Err(err).
					Str("message_id", msg.MessageID).
					Msg("Failed to process fulfillment message, abandoning for redelivery")
				if abandonErr := p.receiver.AbandonMessage(ctx, msg, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Str("message_id", msg.MessageID).Msg("Failed to abandon message")
				}
				continue
			}
			if err := p.receiver.CompleteMessage(ctx, msg, nil); err != nil {
				log.Error().Err(err).Str("message_id", msg.MessageID).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the receiver and client
func (p *Processor) Close() error {
	if p.receiver != nil {
		if err := p.receiver.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

// DecodeOrderCreated extracts the fulfillment payload from a received message
func DecodeOrderCreated(msg *azservicebus.ReceivedMessage) (*OrderCreatedMessage, error) {
	var payload OrderCreatedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal order created message")
	}
	if payload.OrderID == uuid.Nil {
		return nil, errors.New("order created message has no order ID")
	}
	return &payload, nil
}
