package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"

	"github.com/kmarsack/storeyard-backend/internal/worker"
	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
	"github.com/kmarsack/storeyard-backend/pkg/metrics"
)

const (
	restockEventType      = "stock.restock_needed"
	defaultPublishTimeout = 30 * time.Second
)

// RestockScanJobParams configure the restock scan.
type RestockScanJobParams struct {
	Logger    *logger.Logger
	StockRepo stockLister
	Publisher Publisher
	Metrics   *metrics.WorkerJobMetrics
	BatchSize int
}

type stockLister interface {
	ListItemsBelowThreshold(ctx context.Context, limit int) ([]models.StockItem, error)
}

// Publisher abstracts the Pub/Sub publish surface so the job is testable.
type Publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

// PublishResult resolves to the server-assigned message ID.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// RestockAlertEvent is the payload published for each item found short.
type RestockAlertEvent struct {
	ResourceID        int64      `json:"resourceId"`
	QuantityAvailable int        `json:"quantityAvailable"`
	RestockThreshold  int        `json:"restockThreshold"`
	LastRestockAt     *time.Time `json:"lastRestockAt,omitempty"`
	ScannedAt         time.Time  `json:"scannedAt"`
}

type restockScanJob struct {
	logg      *logger.Logger
	stockRepo stockLister
	publisher Publisher
	metrics   *metrics.WorkerJobMetrics
	batchSize int
	now       func() time.Time
}

// NewRestockScanJob constructs the job that scans stock levels and publishes
// a restock alert for every item below its threshold. The scan never creates
// stock orders; replenishment stays a deliberate operator action.
func NewRestockScanJob(params RestockScanJobParams) (worker.Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.StockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &restockScanJob{
		logg:      params.Logger,
		stockRepo: params.StockRepo,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		batchSize: params.BatchSize,
		now:       time.Now,
	}, nil
}

func (j *restockScanJob) Name() string { return "restock-scan" }

func (j *restockScanJob) Run(ctx context.Context) error {
	items, err := j.stockRepo.ListItemsBelowThreshold(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("scan stock levels: %w", err)
	}
	j.metrics.SetBelowThreshold(len(items))

	var errs []error
	published := 0
	for _, item := range items {
		if err := j.publishAlert(ctx, item); err != nil {
			errs = append(errs, fmt.Errorf("resource %d: %w", item.ResourceID, err))
			continue
		}
		j.metrics.IncAlertsPublished()
		published++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"short":     len(items),
		"published": published,
	})
	j.logg.Info(logCtx, "restock scan complete")
	return multierr.Combine(errs...)
}

func (j *restockScanJob) publishAlert(ctx context.Context, item models.StockItem) error {
	payload, err := json.Marshal(RestockAlertEvent{
		ResourceID:        item.ResourceID,
		QuantityAvailable: item.QuantityAvailable,
		RestockThreshold:  item.RestockThreshold,
		LastRestockAt:     item.LastRestockAt,
		ScannedAt:         j.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := j.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type":  restockEventType,
			"resource_id": fmt.Sprintf("%d", item.ResourceID),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}
