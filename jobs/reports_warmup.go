package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/molecula-pos/molecula-pos/internal/jobs"
	"github.com/molecula-pos/molecula-pos/internal/reporting"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const defaultWarmupDays = 30

// ReportsWarmupJob pre-populates the dashboard cache so the first admin of
// the day does not pay the aggregation cost.
type ReportsWarmupJob struct {
	Reports *reporting.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reports *reporting.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes reports warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Days <= 0 {
		payload.Days = defaultWarmupDays
	}

	tracker := j.metrics().Track(TaskReportsWarmup)
	start := time.Now()
	err := j.Reports.Warmup(ctx, payload.Days)
	if err != nil {
		j.logger().ErrorContext(ctx, "reports warmup failed", "days", payload.Days, "error", err)
		return tracker.End(err)
	}
	j.logger().InfoContext(ctx, "reports warmup completed", "days", payload.Days, "duration", time.Since(start))
	return tracker.End(nil)
}

func (j *ReportsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
