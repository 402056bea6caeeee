package dashboard

import (
	"context"
	"time"

	"github.com/careview/platform/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RefreshModel is one audit row per fetch+parse cycle. Only cycle metadata is
// persisted; the records themselves stay in memory.
type RefreshModel struct {
	ID           string            `gorm:"primaryKey;column:id"`
	Dataset      string            `gorm:"column:dataset;index"`
	Status       string            `gorm:"column:status"`
	RowsKept     int               `gorm:"column:rows_kept"`
	LinesSeen    int               `gorm:"column:lines_seen"`
	RowsDropped  int               `gorm:"column:rows_dropped"`
	DurationMS   int64             `gorm:"column:duration_ms"`
	ErrorMessage string            `gorm:"column:error_message"`
	Columns      datatypes.JSONMap `gorm:"column:columns"`
	RefreshedAt  time.Time         `gorm:"column:refreshed_at"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
}

func (RefreshModel) TableName() string {
	return "dataset_refreshes"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&RefreshModel{})
}

func (r *Repository) SaveRefresh(ctx context.Context, summary models.RefreshSummary, columns []string) error {
	cols := make(datatypes.JSONMap, len(columns))
	for i, c := range columns {
		cols[c] = i
	}

	row := &RefreshModel{
		ID:           uuid.New().String(),
		Dataset:      summary.Dataset,
		Status:       summary.Status,
		RowsKept:     summary.RowsKept,
		LinesSeen:    summary.LinesSeen,
		RowsDropped:  summary.RowsDropped,
		DurationMS:   summary.DurationMS,
		ErrorMessage: summary.Error,
		Columns:      cols,
		RefreshedAt:  summary.RefreshedAt,
		CreatedAt:    time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// RecentRefreshes lists the latest audit rows for a dataset, newest first.
func (r *Repository) RecentRefreshes(ctx context.Context, dataset string, limit int) ([]RefreshModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []RefreshModel
	err := r.db.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
