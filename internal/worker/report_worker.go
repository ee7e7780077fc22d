package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"officebook/internal/database"
	"officebook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TaskRebuild = "rebuild"

// reportTaskPayload is persisted in ReportTask.Payload as JSON.
type reportTaskPayload struct {
	BookingID int64  `json:"booking_id"`
	OfficeID  int64  `json:"office_id"`
	Date      string `json:"date"`
}

// ReportWriter rebuilds the occupancy report around a changed date.
type ReportWriter interface {
	RebuildReport(ctx context.Context, around time.Time) error
}

// ReportWorker consumes report_queue tasks and rebuilds the occupancy
// report. Tasks are persisted to the database first, then scheduled via
// redis or the in-memory channel; database polling catches anything that
// fell through.
type ReportWorker struct {
	db            *database.DB
	writer        ReportWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.ReportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewReportWorker builds a worker with sane defaults.
func NewReportWorker(db *database.DB, writer ReportWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ReportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ReportWorker{
		db:            db,
		writer:        writer,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.ReportTask, models.WorkerQueueSize),
		redisQueueKey: "reports:queue",
		deadLetterKey: "reports:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueBookingReport persists a rebuild task for the booking's date and
// schedules it via redis or the in-memory queue.
func (w *ReportWorker) EnqueueBookingReport(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}

	payload := reportTaskPayload{
		BookingID: booking.ID,
		OfficeID:  booking.OfficeID,
		Date:      booking.StartAt.UTC().Format("2006-01-02"),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	task := models.ReportTask{
		TaskType:  TaskRebuild,
		BookingID: booking.ID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateReportTask(ctx, &task); err != nil {
		return fmt.Errorf("failed to persist report task: %w", err)
	}

	// Redis first so another instance can pick the task up.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Queue full; the polling loop will pick the persisted task up.
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("report worker started")
	defer w.logger.Info().Msg("report worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingReportTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to fetch pending tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ReportWorker) tryLocalQueue() (models.ReportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.ReportTask{}, false
	}
}

func (w *ReportWorker) tryRedis(ctx context.Context) (models.ReportTask, bool) {
	if w.redis == nil {
		return models.ReportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.ReportTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.ReportTask{}, false
	}
	if len(res) != 2 {
		return models.ReportTask{}, false
	}
	var task models.ReportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("failed to decode redis task")
		return models.ReportTask{}, false
	}
	return task, true
}

func (w *ReportWorker) processTask(ctx context.Context, task *models.ReportTask) {
	var payload reportTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("failed to decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task completed")
	}
}

func (w *ReportWorker) handleTask(ctx context.Context, taskType string, payload reportTaskPayload) error {
	switch taskType {
	case TaskRebuild:
		date, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return fmt.Errorf("bad task date %q: %w", payload.Date, err)
		}
		return w.writer.RebuildReport(ctx, date)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *ReportWorker) retryOrFail(ctx context.Context, task *models.ReportTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task for retry")
	}
}

func (w *ReportWorker) failTask(ctx context.Context, task *models.ReportTask, cause error) {
	if err := w.db.UpdateReportTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *ReportWorker) pushRedis(ctx context.Context, task models.ReportTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ReportWorker) pushDeadLetter(ctx context.Context, task *models.ReportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to push deadletter task")
	}
}
