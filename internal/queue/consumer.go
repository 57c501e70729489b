package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type TaskHandler interface {
	Handle(ctx context.Context, task Task) error
}

const defaultMaxDeliveries = 5

type Consumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	claimInterval time.Duration
	maxDeliveries int64
	logger        zerolog.Logger
	handler       TaskHandler
}

// NewConsumer builds a group consumer. A task delivered maxDeliveries
// times without success is moved to the dead-letter stream.
func NewConsumer(client *redis.Client, stream, group, consumer string, claimInterval time.Duration, maxDeliveries int, logger zerolog.Logger, handler TaskHandler) *Consumer {
	if claimInterval <= 0 {
		claimInterval = 30 * time.Second
	}
	if maxDeliveries <= 0 {
		maxDeliveries = defaultMaxDeliveries
	}
	return &Consumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		claimInterval: claimInterval,
		maxDeliveries: int64(maxDeliveries),
		logger:        logger,
		handler:       handler,
	}
}

// DeadLetterStream names the stream that holds tasks given up on.
func DeadLetterStream(stream string) string {
	return stream + ":dead"
}

func (c *Consumer) exhausted(deliveries int64) bool {
	return deliveries >= c.maxDeliveries
}

// EnsureGroup creates the consumer group (and the stream) when missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("claim stalled failed")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

// process runs one message and acks it on success. Malformed messages are
// acked too so they do not cycle through claims forever.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	task, err := DecodeTask(msg.Values)
	if err != nil {
		c.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.handler.Handle(ctx, task); err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("type", task.Type).
			Msg("handle task failed")
		return
	}
	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", id).Msg("ack failed")
	}
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.claimInterval {
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.claimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.logger.Error().Err(err).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			if c.exhausted(entry.RetryCount) {
				c.deadLetter(ctx, msg, entry.RetryCount)
				continue
			}
			c.process(ctx, msg)
		}
	}
	return nil
}

// deadLetter copies msg to the dead-letter stream and acks the original.
// The original stays pending when the copy fails so nothing is lost.
func (c *Consumer) deadLetter(ctx context.Context, msg redis.XMessage, deliveries int64) {
	values := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["source_id"] = msg.ID
	values["deliveries"] = deliveries

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStream(c.stream),
		Values: values,
	}).Err(); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dead-letter failed")
		return
	}
	c.logger.Warn().
		Str("message_id", msg.ID).
		Int64("deliveries", deliveries).
		Msg("task exceeded delivery limit, moved to dead-letter stream")
	c.ack(ctx, msg.ID)
}
