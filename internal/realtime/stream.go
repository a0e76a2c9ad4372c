package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// StreamPublisher forwards case events to a Redis stream so other processes
// can follow the hub without their own connection.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher maxLen <= 0 keeps the stream unbounded.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends ev with XADD.
func (p *StreamPublisher) Publish(ctx context.Context, ev models.CaseEvent) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"kind":      ev.Kind,
			"case_id":   strconv.Itoa(ev.CaseID),
			"message":   ev.Message,
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// StreamConsumer reads case events from a Redis stream as a member of a
// consumer group.
type StreamConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *zap.Logger
}

func NewStreamConsumer(client *redis.Client, stream, group, consumer string, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{client: client, stream: stream, group: group, consumer: consumer, logger: logger}
}

// EnsureGroup creates the consumer group, and the stream if needed. An
// existing group is not an error.
func (c *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.group, err)
	}
	return nil
}

// Read returns up to count new events and acknowledges them. block < 0 does
// not wait; otherwise it waits up to block for new entries.
func (c *StreamConsumer) Read(ctx context.Context, count int64, block time.Duration) ([]models.CaseEvent, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s: %w", c.stream, err)
	}

	var (
		events []models.CaseEvent
		ids    []string
	)
	for _, s := range streams {
		for _, msg := range s.Messages {
			ids = append(ids, msg.ID)
			ev, err := eventFromValues(msg.Values)
			if err != nil {
				c.logger.Warn("Skipping malformed stream entry", zap.String("id", msg.ID), zap.Error(err))
				continue
			}
			events = append(events, ev)
		}
	}
	if len(ids) > 0 {
		if err := c.client.XAck(ctx, c.stream, c.group, ids...).Err(); err != nil {
			return events, fmt.Errorf("xack %s: %w", c.stream, err)
		}
	}
	return events, nil
}

// Run delivers events to fn until ctx ends.
func (c *StreamConsumer) Run(ctx context.Context, fn func(models.CaseEvent)) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	for {
		events, err := c.Read(ctx, 50, 5*time.Second)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Error("Failed to read case stream", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, ev := range events {
			fn(ev)
		}
	}
}

func eventFromValues(values map[string]interface{}) (models.CaseEvent, error) {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	id, err := strconv.Atoi(str("case_id"))
	if err != nil {
		return models.CaseEvent{}, fmt.Errorf("case_id: %w", err)
	}
	kind := str("kind")
	if kind == "" {
		return models.CaseEvent{}, errors.New("missing kind")
	}
	return models.CaseEvent{Kind: kind, CaseID: id, Message: str("message")}, nil
}
