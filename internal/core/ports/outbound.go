package ports

import (
	"context"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// DatasetSource fetches and parses a tabular dataset from its locator.
type DatasetSource interface {
	Load(ctx context.Context, locator string) (*domain.Dataset, error)
}

// RecordStore serves datasets, caching them per source locator.
type RecordStore interface {
	Load(ctx context.Context, locator string) (*domain.Dataset, error)
}

// ResourceFetcher retrieves the bytes behind a locator.
type ResourceFetcher interface {
	Fetch(ctx context.Context, locator string) (*domain.Resource, error)
}

// SearchEventPublisher emits search analytics events.
type SearchEventPublisher interface {
	PublishSearch(ctx context.Context, event domain.SearchEvent) error
}
