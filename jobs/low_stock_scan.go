package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/molecula-pos/molecula-pos/internal/jobs"
	"github.com/molecula-pos/molecula-pos/internal/reporting"
)

const defaultLowStockThreshold = 3

// LowStockScanJob flags product-size variants at or below the restock
// threshold so staff can reorder before a size sells out.
type LowStockScanJob struct {
	Reports *reporting.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(reports *reporting.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Threshold <= 0 {
		payload.Threshold = defaultLowStockThreshold
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	items, err := j.Reports.LowStock(ctx, payload.Threshold)
	if err != nil {
		j.logger().ErrorContext(ctx, "low stock scan failed", "threshold", payload.Threshold, "error", err)
		return tracker.End(err)
	}
	j.metrics().SetLowStockCount(len(items))
	for _, item := range items {
		j.logger().WarnContext(ctx, "variant low on stock",
			"product_id", item.ProductID,
			"product", item.ProductName,
			"size", item.SizeName,
			"stock", item.Stock,
		)
	}
	j.logger().InfoContext(ctx, "low stock scan completed", "threshold", payload.Threshold, "flagged", len(items))
	return tracker.End(nil)
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
