package mocks

import (
	"context"
	"slices"
	"testing"

	"github.com/heatcare/heatcare/pkg/domain"
	kassoc "github.com/heatcare/heatcare/pkg/domain/association/db"
	mocks "github.com/heatcare/heatcare/pkg/domain/internal/db/mock"
)

type ReplaceArgs struct {
	ObjectId   int
	MandantIds []int
}

type InsertArgs struct {
	ObjectId  int
	MandantId int
}

type AssociationInterface struct {
	t    *testing.T
	Impl struct {
		Find    func(ctx context.Context, objectId int) ([]int, error)
		Replace func(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error)
		Delete  func(ctx context.Context, objectId int) (int, error)
		Insert  func(ctx context.Context, objectId int, mandantId int) error
	}
	Calls struct {
		Find    mocks.CallLog[int]
		Replace mocks.CallLog[ReplaceArgs]
		Delete  mocks.CallLog[int]
		Insert  mocks.CallLog[InsertArgs]
	}
}

var _ kassoc.Interface = &AssociationInterface{}

func New(t *testing.T) *AssociationInterface {
	return &AssociationInterface{t: t}
}

func (m *AssociationInterface) Find(ctx context.Context, objectId int) ([]int, error) {
	m.t.Helper()
	m.Calls.Find = append(m.Calls.Find, objectId)
	if m.Impl.Find == nil {
		m.t.Fatal("[MOCK] AssociationInterface.Find is not implemented")
	}
	return m.Impl.Find(ctx, objectId)
}

func (m *AssociationInterface) Replace(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
	m.t.Helper()
	m.Calls.Replace = append(m.Calls.Replace, ReplaceArgs{ObjectId: objectId, MandantIds: slices.Clone(mandantIds)})
	if m.Impl.Replace == nil {
		m.t.Fatal("[MOCK] AssociationInterface.Replace is not implemented")
	}
	return m.Impl.Replace(ctx, objectId, mandantIds)
}

func (m *AssociationInterface) Delete(ctx context.Context, objectId int) (int, error) {
	m.t.Helper()
	m.Calls.Delete = append(m.Calls.Delete, objectId)
	if m.Impl.Delete == nil {
		m.t.Fatal("[MOCK] AssociationInterface.Delete is not implemented")
	}
	return m.Impl.Delete(ctx, objectId)
}

func (m *AssociationInterface) Insert(ctx context.Context, objectId int, mandantId int) error {
	m.t.Helper()
	m.Calls.Insert = append(m.Calls.Insert, InsertArgs{ObjectId: objectId, MandantId: mandantId})
	if m.Impl.Insert == nil {
		m.t.Fatal("[MOCK] AssociationInterface.Insert is not implemented")
	}
	return m.Impl.Insert(ctx, objectId, mandantId)
}

// Table is an in-memory "object_mandant" table.
type Table map[int]domain.MandantSet

// Rows returns all associations, ordered by (object id, mandant id).
func (tbl Table) Rows() []domain.Association {
	objectIds := make([]int, 0, len(tbl))
	for oid := range tbl {
		objectIds = append(objectIds, oid)
	}
	slices.Sort(objectIds)

	rows := []domain.Association{}
	for _, oid := range objectIds {
		for _, mid := range tbl[oid].Sorted() {
			rows = append(rows, domain.Association{ObjectId: oid, MandantId: mid})
		}
	}
	return rows
}

// InMemory returns a mock backed by tbl.
//
// Each Impl can be overridden after creation.
func InMemory(t *testing.T, tbl Table) *AssociationInterface {
	m := New(t)
	m.Impl.Find = func(_ context.Context, objectId int) ([]int, error) {
		return tbl[objectId].Sorted(), nil
	}
	m.Impl.Replace = func(_ context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
		before := tbl[objectId]
		after := domain.NewMandantSet(mandantIds...)

		delta := domain.AssociationDelta{
			ObjectId: objectId, Current: after.Sorted(), Added: []int{}, Removed: []int{},
		}
		for _, id := range after.Sorted() {
			if !before.Has(id) {
				delta.Added = append(delta.Added, id)
			}
		}
		for _, id := range before.Sorted() {
			if !after.Has(id) {
				delta.Removed = append(delta.Removed, id)
			}
		}

		if len(after) == 0 {
			delete(tbl, objectId)
		} else {
			tbl[objectId] = after
		}
		return delta, nil
	}
	m.Impl.Delete = func(_ context.Context, objectId int) (int, error) {
		n := len(tbl[objectId])
		delete(tbl, objectId)
		return n, nil
	}
	m.Impl.Insert = func(_ context.Context, objectId int, mandantId int) error {
		s, ok := tbl[objectId]
		if !ok {
			s = domain.NewMandantSet()
			tbl[objectId] = s
		}
		s.Add(mandantId)
		return nil
	}
	return m
}
