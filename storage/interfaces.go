package storage

import (
	"context"

	"dentist-scraper/models"
)

// ListingWriter is the interface any file sink must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// RunWriter persists a whole session, keyed by its run id.
type RunWriter interface {
	WriteRun(ctx context.Context, result *models.SessionResult) error
	Close() error
}
