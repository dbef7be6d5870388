package river

import (
	"context"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// LedgerEventWorker processes ledger event jobs from the River queue by
// writing them to the structured log, where downstream consumers pick them up.
type LedgerEventWorker struct {
	river.WorkerDefaults[LedgerEventArgs]
	logger *zap.Logger
}

// NewLedgerEventWorker creates a worker that logs with the given logger.
func NewLedgerEventWorker(logger *zap.Logger) *LedgerEventWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerEventWorker{logger: logger}
}

// Work processes a single event job.
func (w *LedgerEventWorker) Work(ctx context.Context, job *river.Job[LedgerEventArgs]) error {
	fields := []zap.Field{
		zap.String("kind", job.Args.EventKind),
		zap.String("tenant_id", job.Args.TenantID),
		zap.String("reference", job.Args.Reference),
		zap.Time("occurred_at", job.Args.OccurredAt),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	}
	for k, v := range job.Args.Attributes {
		fields = append(fields, zap.String("attr."+k, v))
	}
	w.logger.Info("ledger event", fields...)
	return nil
}
