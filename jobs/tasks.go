package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueOrderScan sweeps unpicked orders past their delivery date.
	TaskOverdueOrderScan = "sales:overdue_order_scan"
	// TaskDealExpirySweep reports special deals past their end date.
	TaskDealExpirySweep = "pricing:deal_expiry_sweep"
)

// OverdueOrderScanPayload parameterises the overdue order sweep. AsOf is a
// YYYY-MM-DD date; empty means today.
type OverdueOrderScanPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewOverdueOrderScanTask constructs the overdue scan task.
func NewOverdueOrderScanTask(payload OverdueOrderScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueOrderScan, data), nil
}

// DealExpirySweepPayload parameterises the deal expiry sweep. Before is a
// YYYY-MM-DD date; empty means today.
type DealExpirySweepPayload struct {
	Before string `json:"before,omitempty"`
}

// NewDealExpirySweepTask constructs the deal expiry task.
func NewDealExpirySweepTask(payload DealExpirySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDealExpirySweep, data), nil
}
