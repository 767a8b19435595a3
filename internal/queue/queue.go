// Package queue implements the thumbnail job queue on a Redis list. The
// upload path enqueues fire-and-forget; the worker binary blocks on the
// other end. Delivery is at-most-best-effort: an enqueue failure is logged
// by the caller and never retried, and a crashed worker drops its job.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// thumbnailQueueKey is the Redis list backing the "thumbnail" topic.
const thumbnailQueueKey = "filedepot:queue:thumbnails"

// ThumbnailJob is the contract between the upload path and the worker.
type ThumbnailJob struct {
	UserID string `json:"user_id"`
	FileID string `json:"file_id"`
}

// Dispatcher is the producer side, as seen by the file service.
type Dispatcher interface {
	Enqueue(ctx context.Context, job ThumbnailJob) error
}

// RedisQueue is a Redis-list job queue implementing both the producer and
// consumer ends.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a queue on the given Redis client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Enqueue pushes a job onto the thumbnail queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling thumbnail job: %w", err)
	}
	if err := q.client.LPush(ctx, thumbnailQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueuing thumbnail job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available or the context is canceled. The
// blocking pop uses a finite timeout and loops so cancellation is observed
// at least once per second.
func (q *RedisQueue) Dequeue(ctx context.Context) (ThumbnailJob, error) {
	for {
		res, err := q.client.BRPop(ctx, time.Second, thumbnailQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return ThumbnailJob{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ThumbnailJob{}, ctx.Err()
			}
			return ThumbnailJob{}, fmt.Errorf("dequeuing thumbnail job: %w", err)
		}

		// BRPop returns [key, value].
		var job ThumbnailJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return ThumbnailJob{}, fmt.Errorf("unmarshaling thumbnail job: %w", err)
		}
		return job, nil
	}
}

// Len returns the number of pending jobs. Used by tests and ops tooling.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, thumbnailQueueKey).Result()
}
