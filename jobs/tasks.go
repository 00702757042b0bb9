package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-populates the dashboard cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskLowStockScan flags variants at or below the restock threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// ReportsWarmupPayload configures a warmup run.
type ReportsWarmupPayload struct {
	Days int `json:"days"`
}

// NewReportsWarmupTask constructs an Asynq task.
func NewReportsWarmupTask(days int) (*asynq.Task, error) {
	data, err := json.Marshal(ReportsWarmupPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// LowStockScanPayload configures a low-stock scan.
type LowStockScanPayload struct {
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}
