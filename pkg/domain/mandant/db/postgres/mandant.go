package postgres

import (
	"context"

	kpool "github.com/heatcare/heatcare/pkg/conn/db/postgres/pool"
	"github.com/heatcare/heatcare/pkg/domain"
	kmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db"
	xe "github.com/heatcare/heatcare/pkg/errors"
)

type pgMandant struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kmandant.Interface {
	return &pgMandant{pool: pool}
}

func (m *pgMandant) List(ctx context.Context) ([]domain.Mandant, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select "id", "name" from "mandant" order by "id"`,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	mandants := []domain.Mandant{}
	for rows.Next() {
		var mandant domain.Mandant
		if err := rows.Scan(&mandant.Id, &mandant.Name); err != nil {
			return nil, xe.Wrap(err)
		}
		mandants = append(mandants, mandant)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}
	return mandants, nil
}
