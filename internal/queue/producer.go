package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

// Enqueue appends a task to the stream. Without redis it is a no-op.
func (p *Producer) Enqueue(ctx context.Context, task Task) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: task.values(),
	}).Err()
}
