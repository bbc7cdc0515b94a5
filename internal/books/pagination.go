package books

import (
	"context"
	"fmt"

	"github.com/garyjia/books-report/internal/models"
	"go.uber.org/zap"
)

// PageFunc fetches one 1-based page and reports whether more pages follow
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, bool, error)

// FetchAll walks a paginated collection until the server reports no more
// pages, preserving server order. When a page fails the items gathered so far
// are returned together with an error wrapping ErrPartialCollection; callers
// are expected to log it and carry on with the partial result.
func FetchAll[T any](ctx context.Context, name string, perPage int, fetch PageFunc[T], logger *zap.Logger) ([]T, error) {
	var all []T

	for page := 1; ; page++ {
		items, more, err := fetch(ctx, page, perPage)
		if err != nil {
			logger.Error("Failed to fetch page, returning partial collection",
				zap.String("collection", name),
				zap.Int("page", page),
				zap.Int("items_so_far", len(all)),
				zap.Error(err))
			return all, fmt.Errorf("%w: %s page %d: %w", ErrPartialCollection, name, page, err)
		}

		all = append(all, items...)
		logger.Debug("Fetched page",
			zap.String("collection", name),
			zap.Int("page", page),
			zap.Int("count", len(items)))

		if !more {
			return all, nil
		}
	}
}

// FetchRecords fetches every record of a collection
func (c *Client) FetchRecords(ctx context.Context, t models.RecordType, perPage int) ([]Record, error) {
	return FetchAll(ctx, t.Collection(), perPage, func(ctx context.Context, page, perPage int) ([]Record, bool, error) {
		return c.ListRecords(ctx, t, page, perPage)
	}, c.logger)
}

// FetchProjects fetches every project of the organization
func (c *Client) FetchProjects(ctx context.Context, perPage int) ([]Project, error) {
	return FetchAll(ctx, "projects", perPage, c.ListProjects, c.logger)
}
