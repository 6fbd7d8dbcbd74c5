package entity

import (
	"context"
	"time"
)

type CompressionUsecase interface {
	Compress(ctx context.Context, req CompressionRequest) (CompressionResult, error)
	GetObject(ctx context.Context, id string) (StoredObject, error)
}

type CompressionRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	// BaseURL is scheme://host the public link is built from.
	BaseURL string `json:"-"`
}

type CompressionResponse struct {
	URL               string `json:"url"`
	SuggestedFilename string `json:"suggestedFilename"`
}

type CompressionResult struct {
	ID                string
	URL               string
	SuggestedFilename string
	Expiry            time.Time
	SourceBytes       int
	OutputBytes       int
}

// Stage names a step of the compression lifecycle, used in history records and metrics.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageValidating  Stage = "validating"
	StageStaging     Stage = "staging"
	StageCompressing Stage = "compressing"
	StagePublishing  Stage = "publishing"
	StagePublished   Stage = "published"
)

// Compressor runs the external lossless optimizer from one staged file to another.
type Compressor interface {
	Compress(ctx context.Context, inPath, outPath string) error
}
