package types

import (
	"context"

	"github.com/xhad/langdetect/internal/models"
)

// Core interfaces
type Analyzer interface {
	Analyze(ctx context.Context, method models.Method, files []models.UploadedFile) (models.Results, error)
}

// Resolver maps an uploaded file name to the link that re-opens it.
type Resolver interface {
	Resolve(name string) (Reference, bool)
}

type Reference struct {
	ID   string
	Name string
	URL  string
}

type FileStore interface {
	Resolver
	SetFiles(files []models.UploadedFile) []Reference
	Open(id string) (models.UploadedFile, bool)
	Live() int
}
