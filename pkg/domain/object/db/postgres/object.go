package postgres

import (
	"context"

	kpool "github.com/heatcare/heatcare/pkg/conn/db/postgres/pool"
	"github.com/heatcare/heatcare/pkg/domain"
	kobject "github.com/heatcare/heatcare/pkg/domain/object/db"
	xe "github.com/heatcare/heatcare/pkg/errors"
	"github.com/jackc/pgtype"
)

type pgObject struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kobject.Interface {
	return &pgObject{pool: pool}
}

func (o *pgObject) List(ctx context.Context) ([]domain.Object, error) {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select "id", "name", "objanlage" from "object" order by "id"`,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	objects := []domain.Object{}
	for rows.Next() {
		var obj domain.Object
		var objanlage pgtype.JSONB
		if err := rows.Scan(&obj.Id, &obj.Name, &objanlage); err != nil {
			return nil, xe.Wrap(err)
		}
		if objanlage.Status == pgtype.Present {
			obj.Objanlage = objanlage.Bytes
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, xe.Wrap(err)
	}

	return objects, nil
}
