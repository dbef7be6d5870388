package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

const (
	defaultEventWorkers   = 2
	defaultEventRetention = 24 * time.Hour
)

// Options tunes the ledger event queue.
type Options struct {
	// EventWorkers bounds concurrent ledger event jobs; zero means 2.
	EventWorkers int

	// EventRetention is how long completed event jobs stay in the job table; zero means 24h.
	EventRetention time.Duration
}

// Setup migrates River's tables into the ledger database and returns a client
// with the ledger event worker registered. The caller starts and stops it.
func Setup(ctx context.Context, db *sql.DB, logger *zap.Logger, opts Options) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EventWorkers <= 0 {
		opts.EventWorkers = defaultEventWorkers
	}
	if opts.EventRetention <= 0 {
		opts.EventRetention = defaultEventRetention
	}

	driver := riversqlite.New(db)

	// river_job, river_leader and friends live beside the goose-managed ledger tables.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewLedgerEventWorker(logger)); err != nil {
		return nil, fmt.Errorf("registering ledger event worker: %w", err)
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueLedgerEvents:  {MaxWorkers: opts.EventWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: opts.EventRetention,
		ErrorHandler:                NewErrorLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}

// errorLogger reports failed and panicking event jobs. River retries them
// until MaxAttempts is reached.
type errorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger returns a river.ErrorHandler that logs through logger.
func NewErrorLogger(logger *zap.Logger) river.ErrorHandler {
	return &errorLogger{logger: logger}
}

func (h *errorLogger) HandleError(_ context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.logger.Error("ledger event job failed", append(jobFields(job), zap.Error(err))...)
	return nil
}

func (h *errorLogger) HandlePanic(_ context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.logger.Error("ledger event job panicked",
		append(jobFields(job), zap.Any("panic", panicVal), zap.String("stacktrace", trace))...)
	return nil
}

func jobFields(job *rivertype.JobRow) []zap.Field {
	return []zap.Field{
		zap.Int64("job_id", job.ID),
		zap.String("job_kind", job.Kind),
		zap.String("queue", job.Queue),
		zap.Int("attempt", job.Attempt),
		zap.Int("max_attempts", job.MaxAttempts),
	}
}
