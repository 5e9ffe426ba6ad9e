package mocks

import (
	"context"
	"testing"

	"github.com/heatcare/heatcare/pkg/domain"
	mocks "github.com/heatcare/heatcare/pkg/domain/internal/db/mock"
	kobject "github.com/heatcare/heatcare/pkg/domain/object/db"
)

type ObjectInterface struct {
	t    *testing.T
	Impl struct {
		List func(context.Context) ([]domain.Object, error)
	}
	Calls struct {
		List mocks.CallLog[struct{}]
	}
}

var _ kobject.Interface = &ObjectInterface{}

func New(t *testing.T) *ObjectInterface {
	return &ObjectInterface{t: t}
}

// Returning makes List return objects.
func Returning(t *testing.T, objects ...domain.Object) *ObjectInterface {
	m := New(t)
	m.Impl.List = func(context.Context) ([]domain.Object, error) {
		return objects, nil
	}
	return m
}

func (m *ObjectInterface) List(ctx context.Context) ([]domain.Object, error) {
	m.t.Helper()
	m.Calls.List = append(m.Calls.List, struct{}{})
	if m.Impl.List == nil {
		m.t.Fatal("[MOCK] ObjectInterface.List is not implemented")
	}
	return m.Impl.List(ctx)
}
