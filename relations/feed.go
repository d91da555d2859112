package relations

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const relationExchange = "relation_events"

// ChangeFeed is the durable cross-process propagation path. Subscribe with
// accountID 0 to receive every relationship event. Deliveries are triggers:
// subscribers recompute from the store, never from the payload.
type ChangeFeed interface {
	Subscribe(ctx context.Context, accountID int64) (<-chan Event, error)
}

// RabbitFeed publishes relationship events to a topic exchange with
// per-account routing keys and feeds subscribers from ephemeral queues.
// A lost connection is re-established with exponential backoff; data may go
// stale during the outage but the next recomputation overwrites it.
type RabbitFeed struct {
	url string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitFeed(url string) *RabbitFeed {
	return &RabbitFeed{url: url}
}

func (f *RabbitFeed) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectLocked()
}

func (f *RabbitFeed) connectLocked() error {
	if f.channel != nil && !f.conn.IsClosed() {
		return nil
	}
	conn, err := amqp.Dial(f.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		relationExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	f.conn = conn
	f.channel = channel
	log.Printf("RabbitMQ relation feed connected: %s", f.url)
	return nil
}

func (f *RabbitFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

// PublishEvent routes the event to both affected accounts. Wildcard
// subscribers see it twice; recomputation is idempotent so the duplicate is
// harmless.
func (f *RabbitFeed) PublishEvent(ctx context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.connectLocked(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	for _, accountID := range []int64{event.FollowerID, event.FollowingID} {
		routingKey := fmt.Sprintf("account.%d", accountID)
		err = f.channel.PublishWithContext(ctx,
			relationExchange,
			routingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType: "application/json",
				Body:        body,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
		}
	}
	return nil
}

// Subscribe starts a consumer for events touching accountID (0 for all).
// The consumer loop owns reconnection: on any failure it backs off, re-dials
// and re-binds until ctx is done. The returned channel closes when ctx does.
func (f *RabbitFeed) Subscribe(ctx context.Context, accountID int64) (<-chan Event, error) {
	pattern := "account.*"
	if accountID > 0 {
		pattern = fmt.Sprintf("account.%d", accountID)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		backoff := 500 * time.Millisecond
		for {
			if ctx.Err() != nil {
				return
			}
			if err := f.consumeOnce(ctx, pattern, events); err != nil {
				log.Printf("relation feed consumer (%s): %v, retrying in %s", pattern, err, backoff)
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
				continue
			}
			backoff = 500 * time.Millisecond
		}
	}()
	return events, nil
}

// consumeOnce binds an ephemeral queue and pumps deliveries until the
// connection drops or ctx is cancelled.
func (f *RabbitFeed) consumeOnce(ctx context.Context, pattern string, events chan<- Event) error {
	f.mu.Lock()
	if err := f.connectLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	channel, err := f.conn.Channel()
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer channel.Close()

	q, err := channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := channel.QueueBind(q.Name, pattern, relationExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var event Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				log.Printf("relation feed: failed to unmarshal event: %v", err)
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
