package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/authz"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/product/domain"
)

type mockProductRepo struct {
	products map[string]*domain.Product
	err      error
}

func (m *mockProductRepo) ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range m.products {
		if p.ArtistID == artistID && (includeInactive || p.IsActive) {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	p, ok := m.products[id]
	if ok {
		p.IsActive = false
	}
	return ok, m.err
}

// mockAuthorizer grants exactly the listed "actor action kind:id" tuples.
type mockAuthorizer map[string]bool

func (m mockAuthorizer) Authorize(ctx context.Context, actorID string, ref authz.ResourceRef, action authz.Action) error {
	if m[fmt.Sprintf("%s %s %s", actorID, action, ref)] {
		return nil
	}
	if actorID == "" {
		return errs.ErrUnauthenticated
	}
	return errs.ErrForbidden
}

type mockAudit struct{ actions []string }

func (m *mockAudit) LogEvent(ctx context.Context, actorID, action, resource, metadata string) {
	m.actions = append(m.actions, action+" "+resource)
}

func newTestService(grants mockAuthorizer) (*Service, *mockProductRepo, *mockAudit) {
	repo := &mockProductRepo{products: map[string]*domain.Product{
		"p1": {ID: "p1", ArtistID: "ap1", Name: "Ocean Waves", PriceCents: 120000, IsActive: true},
		"p2": {ID: "p2", ArtistID: "ap1", Name: "Retired Vase", PriceCents: 5000, IsActive: false},
	}}
	a := &mockAudit{}
	svc := NewService(repo, grants, a, nil, time.Second)
	svc.newID = func() string { return "p3" }
	return svc, repo, a
}

func TestDelete(t *testing.T) {
	svc, repo, a := newTestService(mockAuthorizer{"u1 delete product:p1": true})

	require.NoError(t, svc.Delete(context.Background(), "u1", "p1"))
	assert.False(t, repo.products["p1"].IsActive)
	assert.Equal(t, []string{"product.delete product:p1"}, a.actions)
}

func TestDelete_Denied(t *testing.T) {
	svc, repo, a := newTestService(mockAuthorizer{"u2 edit product:p1": true})

	err := svc.Delete(context.Background(), "u2", "p1")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.True(t, repo.products["p1"].IsActive)
	assert.Empty(t, a.actions)

	err = svc.Delete(context.Background(), "", "p1")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestCreate(t *testing.T) {
	svc, repo, a := newTestService(mockAuthorizer{"u2 edit artist_profile:ap1": true})

	p, err := svc.Create(context.Background(), "u2", "ap1", " Clay Bowl ", 2500)
	require.NoError(t, err)
	assert.Equal(t, "Clay Bowl", p.Name)
	assert.Contains(t, repo.products, "p3")
	assert.Equal(t, []string{"product.create product:p3"}, a.actions)

	_, err = svc.Create(context.Background(), "u3", "ap1", "Clay Bowl", 2500)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.Create(context.Background(), "u2", "ap1", "", 2500)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestListForArtist(t *testing.T) {
	svc, _, _ := newTestService(mockAuthorizer{"u1 edit artist_profile:ap1": true})
	ctx := context.Background()

	owner, err := svc.ListForArtist(ctx, "u1", "ap1")
	require.NoError(t, err)
	assert.Len(t, owner, 2)

	buyer, err := svc.ListForArtist(ctx, "u3", "ap1")
	require.NoError(t, err)
	assert.Len(t, buyer, 1)

	anonymous, err := svc.ListForArtist(ctx, "", "ap1")
	require.NoError(t, err)
	assert.Len(t, anonymous, 1)
}
