package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
)

// OverdueOrderScanJob sweeps unpicked orders past their expected delivery
// date and reports them by urgency bucket.
type OverdueOrderScanJob struct {
	Orders  *orders.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueOrderScanJob initialises the overdue scan handler.
func NewOverdueOrderScanJob(ordersSvc *orders.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueOrderScanJob {
	return &OverdueOrderScanJob{
		Orders:  ordersSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue scan.
func (j *OverdueOrderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Orders == nil {
		return errors.New("overdue order scan: handler not configured")
	}
	var payload OverdueOrderScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	asOf := j.now()
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	tracker := j.metrics().Track(TaskOverdueOrderScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	overdue, err := j.Orders.ListOverdue(ctx, asOf)
	if err != nil {
		resultErr = err
		return resultErr
	}

	buckets := map[orders.DeliveryUrgency]int{}
	for _, order := range overdue {
		buckets[order.DeliveryUrgencyOn(asOf)]++
	}
	for urgency, count := range buckets {
		j.metrics().SetOverdueOrders(string(urgency), count)
	}

	j.logger().Info("overdue order scan complete",
		slog.Time("as_of", asOf),
		slog.Int("overdue", len(overdue)),
		slog.Int("due_now", buckets[orders.UrgencyOverdue]))
	return nil
}

func (j *OverdueOrderScanJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *OverdueOrderScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverdueOrderScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
