package db

import (
	"context"

	"github.com/heatcare/heatcare/pkg/domain"
)

type Interface interface {
	// List returns all mandants, ordered by id.
	List(ctx context.Context) ([]domain.Mandant, error)
}
