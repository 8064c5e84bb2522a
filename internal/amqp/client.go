// Package amqp publishes and consumes transaction change events over
// RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	routingKey   string

	// listener clients consume from a private queue the broker names and
	// deletes with the connection
	listener bool

	mu        sync.Mutex
	conn      *amqp091.Connection
	channel   *amqp091.Channel
	queueName string

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time

	// maxElapsed bounds connection retries; zero retries until ctx ends.
	maxElapsed time.Duration
}

// NewClient connects, retrying with exponential backoff until maxElapsed
// passes or ctx ends.
func NewClient(ctx context.Context, url, exchangeName, queueName string, maxElapsed time.Duration) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		routingKey:   queueName,
		queueName:    queueName,
		maxElapsed:   maxElapsed,
	}
	if err := c.connect(ctx, newBackOff(maxElapsed)); err != nil {
		return nil, err
	}
	return c, nil
}

// NewListener connects a client that receives a copy of every change
// routed to queueName without competing with that queue's consumers.
func NewListener(ctx context.Context, url, exchangeName, queueName string, maxElapsed time.Duration) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		routingKey:   queueName,
		listener:     true,
		maxElapsed:   maxElapsed,
	}
	if err := c.connect(ctx, newBackOff(maxElapsed)); err != nil {
		return nil, err
	}
	return c, nil
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = maxElapsed
	b.Reset()
	return b
}

func (c *Client) connect(ctx context.Context, b backoff.BackOff) error {
	op := func() error {
		conn, err := amqp091.Dial(c.url)
		if err != nil {
			slog.WarnContext(ctx, "AMQP dial failed", "error", err)
			return fmt.Errorf("dial AMQP: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return fmt.Errorf("open channel: %w", err)
		}
		queue, err := setup(ch, c.exchangeName, c.routingKey, c.listener)
		if err != nil {
			ch.Close()
			conn.Close()
			return backoff.Permanent(fmt.Errorf("setup exchange and queue: %w", err))
		}
		c.mu.Lock()
		c.conn, c.channel, c.queueName = conn, ch, queue
		c.mu.Unlock()
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Connected to AMQP",
		"exchange", c.exchangeName,
		"queue", c.queue(),
		"listener", c.listener)
	return nil
}

// setup declares the exchange and the queue bound to routingKey and
// returns the queue name. The shared queue is named after its routing key;
// a listener queue is exclusive, auto-deleted and named by the broker.
func setup(ch *amqp091.Channel, exchange, routingKey string, listener bool) (string, error) {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare exchange: %w", err)
	}
	name, durable, autoDelete, exclusive := routingKey, true, false, false
	if listener {
		name, durable, autoDelete, exclusive = "", false, true, true
	}
	q, err := ch.QueueDeclare(name, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return "", fmt.Errorf("bind queue: %w", err)
	}
	return q.Name, nil
}

func (c *Client) queue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueName
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil
	}
	return c.channel
}

// PublishChange implements ports.ChangePublisher.
func (c *Client) PublishChange(ctx context.Context, ev core.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish change: %w", ErrCircuitOpen)
	}
	body, err := EncodeChange(ev)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := c.currentChannel()
	if ch == nil {
		// single attempt on the write path
		if err := c.connect(ctx, &backoff.StopBackOff{}); err != nil {
			c.recordFailure()
			return fmt.Errorf("reconnect: %w", err)
		}
		ch = c.currentChannel()
		if ch == nil {
			c.recordFailure()
			return fmt.Errorf("publish change: channel unavailable")
		}
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, c.exchangeName, c.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published change event",
		"user_id", ev.UserID,
		"transaction_id", ev.TransactionID,
		"op", ev.Op,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeChanges delivers events to handler until ctx ends. A handler
// error requeues the message; a malformed message is dropped. A lost
// connection is re-established with backoff.
func (c *Client) ConsumeChanges(ctx context.Context, handler func(context.Context, core.ChangeEvent) error) error {
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.WarnContext(ctx, "AMQP consumer interrupted, reconnecting", "error", err)
		c.dropChannel()
		if err := c.connect(ctx, newBackOff(c.maxElapsed)); err != nil {
			return fmt.Errorf("reconnect consumer: %w", err)
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, core.ChangeEvent) error) error {
	ch := c.currentChannel()
	if ch == nil {
		return errors.New("channel unavailable")
	}
	queue := c.queue()
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	slog.InfoContext(ctx, "Started consuming change events", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			ev, err := DecodeChange(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Dropping malformed message", "error", err)
				delivery.Nack(false, false)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				slog.ErrorContext(ctx, "Failed to handle change event",
					"user_id", ev.UserID,
					"op", ev.Op,
					"error", err)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) dropChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.failMu.Lock()
		last := c.lastFailure
		c.failMu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
