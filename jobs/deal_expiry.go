package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DealExpirySweepJob reports special deals whose validity window has ended.
// Expired deals stay in the catalogue for audit; the sweep surfaces them for
// the sales team to extend or retire.
type DealExpirySweepJob struct {
	Deals   *pricing.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDealExpirySweepJob initialises the expiry sweep handler.
func NewDealExpirySweepJob(deals *pricing.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *DealExpirySweepJob {
	return &DealExpirySweepJob{
		Deals:   deals,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the expiry sweep.
func (j *DealExpirySweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Deals == nil {
		return errors.New("deal expiry sweep: handler not configured")
	}
	var payload DealExpirySweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	before := j.now()
	if payload.Before != "" {
		parsed, err := time.Parse("2006-01-02", payload.Before)
		if err != nil {
			return asynq.SkipRetry
		}
		before = parsed
	}

	tracker := j.metrics().Track(TaskDealExpirySweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	expired, err := j.Deals.ListExpired(ctx, before)
	if err != nil {
		resultErr = err
		return resultErr
	}
	j.metrics().AddExpiredDeals(len(expired))

	for _, deal := range expired {
		id, _ := deal.ID().Value()
		j.logger().Info("special deal expired",
			slog.Int64("deal_id", id),
			slog.String("description", deal.Description()),
			slog.Time("end_date", deal.EndDate()))
	}
	j.logger().Info("deal expiry sweep complete",
		slog.Time("before", before),
		slog.Int("expired", len(expired)))
	return nil
}

func (j *DealExpirySweepJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *DealExpirySweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DealExpirySweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
