package mocks

import (
	"context"
	"testing"

	"github.com/heatcare/heatcare/pkg/domain"
	mocks "github.com/heatcare/heatcare/pkg/domain/internal/db/mock"
	kmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db"
)

type MandantInterface struct {
	t    *testing.T
	Impl struct {
		List func(context.Context) ([]domain.Mandant, error)
	}
	Calls struct {
		List mocks.CallLog[struct{}]
	}
}

var _ kmandant.Interface = &MandantInterface{}

func New(t *testing.T) *MandantInterface {
	return &MandantInterface{t: t}
}

// Returning makes List return mandants.
func Returning(t *testing.T, mandants ...domain.Mandant) *MandantInterface {
	m := New(t)
	m.Impl.List = func(context.Context) ([]domain.Mandant, error) {
		return mandants, nil
	}
	return m
}

func (m *MandantInterface) List(ctx context.Context) ([]domain.Mandant, error) {
	m.t.Helper()
	m.Calls.List = append(m.Calls.List, struct{}{})
	if m.Impl.List == nil {
		m.t.Fatal("[MOCK] MandantInterface.List is not implemented")
	}
	return m.Impl.List(ctx)
}
