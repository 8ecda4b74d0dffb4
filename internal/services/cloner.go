package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// PropertyCloner duplicates property documents under a new owner. All clones
// of one call are written concurrently and joined before returning; the
// caller persists the owning entity with the returned id list afterwards.
type PropertyCloner struct {
	props repository.PropertyStore
}

// NewPropertyCloner creates a new PropertyCloner.
func NewPropertyCloner(props repository.PropertyStore) *PropertyCloner {
	return &PropertyCloner{props: props}
}

// Clone persists one independent copy per source property and returns the new
// ids in source order. Every copy is tagged with batchID so a partially
// written batch can be swept or retried by key; the successful writes of a
// failed batch are otherwise left in place.
func (c *PropertyCloner) Clone(ctx context.Context, batchID string, sources []*models.WorktyProperty) ([]string, error) {
	ids := make([]string, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		id := uuid.New().String()
		ids[i] = id
		g.Go(func() error {
			value := make([]byte, len(src.Value))
			copy(value, src.Value)
			return c.props.Create(ctx, &models.WorktyProperty{
				ID:      id,
				Name:    src.Name,
				Value:   value,
				BatchID: batchID,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.GenericUnexpected, "property clone batch failed", err)
	}
	return ids, nil
}

// CloneByIDs loads the source properties by id and clones them.
func (c *PropertyCloner) CloneByIDs(ctx context.Context, batchID string, sourceIDs []string) ([]string, error) {
	sources, err := c.props.GetMany(ctx, sourceIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.GenericUnexpected, "failed to load source properties", err)
	}
	return c.Clone(ctx, batchID, sources)
}
