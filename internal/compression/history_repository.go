package compression

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"png_compression/entity"
)

// HistoryRepository appends compression outcomes to the compression_records table.
type HistoryRepository struct {
	db *gorm.DB
}

var _ entity.HistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(db *gorm.DB) (*HistoryRepository, error) {
	if err := db.AutoMigrate(&entity.CompressionRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate compression_records")
	}
	return &HistoryRepository{db: db}, nil
}

func (h *HistoryRepository) Record(ctx context.Context, rec entity.CompressionRecord) error {
	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errors.Wrap(err, "insert compression record")
	}
	return nil
}

// NopHistory discards records; used when no database is configured.
type NopHistory struct{}

func (NopHistory) Record(context.Context, entity.CompressionRecord) error { return nil }

// NopEvents discards events; used when no broker is configured.
type NopEvents struct{}

func (NopEvents) PublishCompressed(context.Context, entity.CompressionEvent) error { return nil }
