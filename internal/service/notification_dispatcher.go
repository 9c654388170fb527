package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/compliance-case-api/internal/models"
	"github.com/noah-isme/compliance-case-api/pkg/jobs"
)

const notificationJobType = "case_notification"

// NotificationDispatcher hands a committed notification intent to the email collaborator.
// Implementations must not block on delivery.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, intent models.NotificationIntent) error
}

// Mailer delivers a notification. Transport is owned by the email subsystem.
type Mailer interface {
	Send(ctx context.Context, intent models.NotificationIntent) error
}

// LogMailer is the default Mailer; it records intents in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(_ context.Context, intent models.NotificationIntent) error {
	m.logger.Info("notification ready for delivery",
		zap.String("intent_id", intent.ID),
		zap.String("case_id", intent.CaseID),
		zap.String("kind", string(intent.Kind)),
		zap.String("template", intent.Template),
		zap.Strings("cc", intent.CC),
	)
	return nil
}

// QueueDispatcher buffers intents on an in-process worker pool that forwards them to a Mailer.
// Failed deliveries are logged and not retried.
type QueueDispatcher struct {
	queue *jobs.Queue
}

// NewQueueDispatcher builds the dispatcher and its queue. Call Start before dispatching.
func NewQueueDispatcher(mailer Mailer, workers, bufferSize int, metrics *MetricsService, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		intent, ok := job.Payload.(models.NotificationIntent)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		if err := mailer.Send(ctx, intent); err != nil {
			metrics.ObserveNotification(string(intent.Kind), "send_failed")
			return err
		}
		metrics.ObserveNotification(string(intent.Kind), "sent")
		return nil
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: bufferSize,
		MaxRetries: 0,
		Logger:     logger,
	})
	return &QueueDispatcher{queue: queue}
}

// Start launches the workers.
func (d *QueueDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop halts the workers.
func (d *QueueDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues the intent without blocking.
func (d *QueueDispatcher) Dispatch(_ context.Context, intent models.NotificationIntent) error {
	return d.queue.TryEnqueue(jobs.Job{ID: intent.ID, Type: notificationJobType, Payload: intent})
}

type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisDispatcher appends JSON intents to a Redis list drained by an external email worker.
type RedisDispatcher struct {
	client listPusher
	key    string
}

// NewRedisDispatcher builds a dispatcher writing to the list at key.
func NewRedisDispatcher(client listPusher, key string) (*RedisDispatcher, error) {
	if client == nil {
		return nil, errors.New("redis notification dispatcher requires a redis client")
	}
	if key == "" {
		key = "notifications:intents"
	}
	return &RedisDispatcher{client: client, key: key}, nil
}

// Dispatch implements NotificationDispatcher.
func (d *RedisDispatcher) Dispatch(ctx context.Context, intent models.NotificationIntent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal notification intent: %w", err)
	}
	if err := d.client.LPush(ctx, d.key, payload).Err(); err != nil {
		return fmt.Errorf("push notification intent: %w", err)
	}
	return nil
}
