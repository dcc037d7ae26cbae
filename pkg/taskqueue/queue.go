package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Task is a unit of work handed over to the external workers.
type Task struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
}

// Queue pushes tasks to a Redis list consumed by external workers.
type Queue struct {
	client *redis.Client
	name   string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a queue bound to a Redis list.
func New(client *redis.Client, name string, logger zerolog.Logger) (*Queue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client must be provided")
	}
	if name == "" {
		return nil, fmt.Errorf("queue name must not be empty")
	}

	return &Queue{
		client: client,
		name:   name,
		logger: logger.With().Str("component", "task_queue").Str("queue", name).Logger(),
		now:    time.Now,
	}, nil
}

// Enqueue serialises the task and pushes it to the queue.
func (q *Queue) Enqueue(ctx context.Context, name string, payload map[string]interface{}) (Task, error) {
	task := Task{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: q.now().UTC(),
	}

	encoded, err := json.Marshal(task)
	if err != nil {
		return Task{}, fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, encoded).Err(); err != nil {
		return Task{}, fmt.Errorf("push task: %w", err)
	}

	q.logger.Info().Str("task_id", task.ID).Str("task", name).Msg("task enqueued")
	return task, nil
}

// Pending returns the number of tasks not yet taken by a worker.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	count, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("read queue length: %w", err)
	}
	return count, nil
}

// IsEmpty reports whether every queued task was taken.
func (q *Queue) IsEmpty(ctx context.Context) (bool, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return false, err
	}
	return pending == 0, nil
}
