package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// OversellWatchJobParams configure the oversell watch job.
type OversellWatchJobParams struct {
	Logger *logger.Logger
	Reader exposureReader
}

type exposureReader interface {
	Overcommitted(ctx context.Context, tx *gorm.DB) ([]orders.Exposure, error)
}

// NewOversellWatchJob reports products whose open orders need more units than
// inventory holds. It only reads; fixing stock stays with the catalog operators.
func NewOversellWatchJob(params OversellWatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("exposure reader required")
	}
	return &oversellWatchJob{logg: params.Logger, reader: params.Reader}, nil
}

type oversellWatchJob struct {
	logg   *logger.Logger
	reader exposureReader
}

func (j *oversellWatchJob) Name() string { return JobOversellWatch }

func (j *oversellWatchJob) Run(ctx context.Context) (int64, error) {
	rows, err := j.reader.Overcommitted(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", JobOversellWatch, err)
	}
	for _, row := range rows {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"product_id":   row.ProductID.String(),
			"product_name": row.ProductName,
			"inventory":    row.Inventory,
			"committed":    row.Committed,
			"shortfall":    row.Committed - row.Inventory,
		})
		j.logg.Warn(logCtx, "open orders exceed inventory")
	}
	return int64(len(rows)), nil
}
