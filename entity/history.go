package entity

import (
	"context"
	"time"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// CompressionRecord is one row of the compression history ledger.
type CompressionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	ObjectID    string `gorm:"size:64;index"`
	SourceURL   string `gorm:"size:2048"`
	Status      string `gorm:"size:16;index"`
	FailedStage string `gorm:"size:32"`
	Error       string `gorm:"size:1024"`
	SourceBytes int
	OutputBytes int
	DurationMs  int64
	CreatedAt   time.Time
}

func (CompressionRecord) TableName() string {
	return "compression_records"
}

type HistoryRepository interface {
	Record(ctx context.Context, rec CompressionRecord) error
}

// CompressionEvent is published after a result becomes downloadable.
type CompressionEvent struct {
	ObjectID          string    `json:"objectId"`
	URL               string    `json:"url"`
	SuggestedFilename string    `json:"suggestedFilename"`
	SourceURL         string    `json:"sourceUrl"`
	Expiry            time.Time `json:"expiry"`
	SourceBytes       int       `json:"sourceBytes"`
	OutputBytes       int       `json:"outputBytes"`
}

type EventPublisher interface {
	PublishCompressed(ctx context.Context, ev CompressionEvent) error
}
