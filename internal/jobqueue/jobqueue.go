// Package jobqueue provides a River-based job queue for work that must not
// block a request, currently message notifications: when a message is
// appended, a job records an unread notification row for the recipient.
package jobqueue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"
)

// MessageNotifyArgs represents the arguments for a message notification job
type MessageNotifyArgs struct {
	ChatID      int64 `json:"chat_id"`
	MessageID   int64 `json:"message_id"`
	RecipientID int64 `json:"recipient_id"`
}

// Kind returns the job kind for River
func (MessageNotifyArgs) Kind() string {
	return "message_notify"
}

// MessageNotifyWorker records notification rows for appended messages
type MessageNotifyWorker struct {
	river.WorkerDefaults[MessageNotifyArgs]
	pool *pgxpool.Pool
}

// Work records the notification. Inserting is idempotent per message and
// recipient so a retried job never produces a duplicate badge count.
func (w *MessageNotifyWorker) Work(ctx context.Context, job *river.Job[MessageNotifyArgs]) error {
	args := job.Args

	tag, err := w.pool.Exec(ctx, `
		INSERT INTO message_notifications (chat_id, message_id, recipient_id)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (
			SELECT 1 FROM message_notifications
			WHERE message_id = $2 AND recipient_id = $3
		)
	`, args.ChatID, args.MessageID, args.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Info().
			Int64("chat_id", args.ChatID).
			Int64("message_id", args.MessageID).
			Int64("recipient", args.RecipientID).
			Msg("Recorded message notification")
	}

	return nil
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
}

// NewJobQueue creates a new job queue instance
func NewJobQueue(databaseURL string, maxWorkers int) (*JobQueue, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &MessageNotifyWorker{pool: pool})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{client: client, pool: pool}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers and releases the pool
func (jq *JobQueue) Stop(ctx context.Context) error {
	err := jq.client.Stop(ctx)
	jq.pool.Close()
	return err
}

// NotifyMessage queues a notification job for an appended message. Satisfies
// chat.Notifier.
func (jq *JobQueue) NotifyMessage(ctx context.Context, chatID, messageID, recipientID int64) error {
	args := MessageNotifyArgs{
		ChatID:      chatID,
		MessageID:   messageID,
		RecipientID: recipientID,
	}

	_, err := jq.client.Insert(ctx, args, nil)
	if err != nil {
		return fmt.Errorf("failed to queue message notification: %w", err)
	}

	return nil
}
