package db

import (
	"context"

	"github.com/heatcare/heatcare/pkg/domain"
)

type Interface interface {
	// Find returns ids of mandants associated with the object, ascending.
	Find(ctx context.Context, objectId int) ([]int, error)

	// Replace makes associations of the object exactly mandantIds.
	//
	// Replacement is atomic: on error, associations of the object are left as they were.
	// Duplicated ids in mandantIds are collapsed.
	//
	// # Returns
	//
	// - domain.AssociationDelta: the effect.
	//
	// - error: wraps domain/errors.ErrMissing when the object or one of mandants does not exist.
	Replace(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error)

	// Delete removes all associations of the object, and returns how many are removed.
	Delete(ctx context.Context, objectId int) (int, error)

	// Insert associates the mandant with the object. Associating twice is not an error.
	//
	// It returns an error wrapping domain/errors.ErrMissing when the object or the mandant does not exist.
	Insert(ctx context.Context, objectId int, mandantId int) error
}
