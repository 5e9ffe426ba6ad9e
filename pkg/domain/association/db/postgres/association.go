package postgres

import (
	"context"
	"errors"
	"fmt"

	kpool "github.com/heatcare/heatcare/pkg/conn/db/postgres/pool"
	"github.com/heatcare/heatcare/pkg/domain"
	kassoc "github.com/heatcare/heatcare/pkg/domain/association/db"
	pgerrors "github.com/heatcare/heatcare/pkg/domain/errors/dberrors/postgres"
	xe "github.com/heatcare/heatcare/pkg/errors"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type pgAssociation struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kassoc.Interface {
	return &pgAssociation{pool: pool}
}

func (a *pgAssociation) Find(ctx context.Context, objectId int) ([]int, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(pgerrors.Classify(err))
	}
	defer conn.Release()

	ids, err := queryIds(
		ctx, conn,
		`select "mandant_id" from "object_mandant" where "object_id" = $1 order by "mandant_id"`,
		objectId,
	)
	if err != nil {
		return nil, xe.Wrap(pgerrors.Classify(err))
	}
	return ids, nil
}

func (a *pgAssociation) Replace(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
	target := domain.NewMandantSet(mandantIds...).Sorted()
	arr, err := int4Array(target)
	if err != nil {
		return domain.AssociationDelta{}, xe.Wrap(err)
	}

	delta := domain.AssociationDelta{ObjectId: objectId, Current: target}
	err = kpool.InTx(ctx, a.pool, func(tx kpool.Tx) error {
		// replacements on the same object are serialized by the row lock.
		var locked int
		if err := tx.QueryRow(
			ctx, `select "id" from "object" where "id" = $1 for update`, objectId,
		).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return pgerrors.Missing{Table: "object", Identity: fmt.Sprintf("id=%d", objectId)}
			}
			return err
		}

		removed, err := queryIds(
			ctx, tx,
			`
			delete from "object_mandant"
			where "object_id" = $1 and not ("mandant_id" = any($2))
			returning "mandant_id"
			`,
			objectId, arr,
		)
		if err != nil {
			return err
		}

		added, err := queryIds(
			ctx, tx,
			`
			insert into "object_mandant" ("object_id", "mandant_id")
			select $1, "m" from unnest($2::int[]) as "m"
			on conflict do nothing
			returning "mandant_id"
			`,
			objectId, arr,
		)
		if err != nil {
			if pgerrors.IsForeignKeyViolation(err) {
				return pgerrors.Missing{Table: "mandant", Identity: fmt.Sprintf("one of ids=%v", target)}
			}
			return err
		}

		delta.Removed = domain.NewMandantSet(removed...).Sorted()
		delta.Added = domain.NewMandantSet(added...).Sorted()
		return nil
	})
	if err != nil {
		return domain.AssociationDelta{}, xe.Wrap(pgerrors.Classify(err))
	}
	return delta, nil
}

func (a *pgAssociation) Delete(ctx context.Context, objectId int) (int, error) {
	ctag, err := a.pool.Exec(
		ctx,
		`delete from "object_mandant" where "object_id" = $1`,
		objectId,
	)
	if err != nil {
		return 0, xe.Wrap(pgerrors.Classify(err))
	}
	return int(ctag.RowsAffected()), nil
}

func (a *pgAssociation) Insert(ctx context.Context, objectId int, mandantId int) error {
	_, err := a.pool.Exec(
		ctx,
		`
		insert into "object_mandant" ("object_id", "mandant_id") values ($1, $2)
		on conflict do nothing
		`,
		objectId, mandantId,
	)
	if err == nil {
		return nil
	}
	if pgerrors.IsForeignKeyViolation(err) {
		return xe.Wrap(pgerrors.Missing{
			Table:    "object or mandant",
			Identity: fmt.Sprintf("(object id=%d, mandant id=%d)", objectId, mandantId),
		})
	}
	return xe.Wrap(pgerrors.Classify(err))
}

func int4Array(ids []int) (pgtype.Int4Array, error) {
	ids32 := make([]int32, len(ids))
	for i, id := range ids {
		ids32[i] = int32(id)
	}
	var arr pgtype.Int4Array
	if err := arr.Set(ids32); err != nil {
		return pgtype.Int4Array{}, err
	}
	return arr, nil
}

func queryIds(ctx context.Context, q kpool.Queryer, sql string, args ...any) ([]int, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
