package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/platform/errs"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	"handicraft-marketplace/backend/internal/support/domain"
)

type mockSupportRepo struct {
	created []*domain.Transaction
	byID    map[string]*domain.Transaction
	err     error
}

func (m *mockSupportRepo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, t)
	return nil
}

func (m *mockSupportRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return m.byID[id], m.err
}

func (m *mockSupportRepo) ListByArtist(ctx context.Context, artistID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range m.created {
		if t.ArtistID == artistID {
			out = append(out, t)
		}
	}
	return out, m.err
}

type mockArtists map[string]*profiledomain.ArtistProfile

func (m mockArtists) GetArtistByID(ctx context.Context, id string) (*profiledomain.ArtistProfile, error) {
	return m[id], nil
}

type mockAudit struct{ actions []string }

func (m *mockAudit) LogEvent(ctx context.Context, actorID, action, resource, metadata string) {
	m.actions = append(m.actions, action+" "+resource)
}

func newTestService() (*Service, *mockSupportRepo, *mockAudit) {
	repo := &mockSupportRepo{}
	a := &mockAudit{}
	artists := mockArtists{"ap1": {ID: "ap1", UserID: "u1"}}
	svc := NewService(repo, artists, a, nil, time.Second)
	svc.newID = func() string { return "s1" }
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo, a
}

func TestCreate(t *testing.T) {
	svc, repo, a := newTestService()

	tx, err := svc.Create(context.Background(), "u3", domain.Input{
		ArtistID: " ap1 ", AmountCents: 2500, Type: domain.TypeMonthly, Message: "Love the pottery",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", tx.ID)
	assert.Equal(t, "ap1", tx.ArtistID)
	assert.Equal(t, domain.StatusPendingPayment, tx.Status)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, []string{"support.create support_transaction:s1"}, a.actions)
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService()

	tests := []struct {
		name string
		in   domain.Input
		msg  string
	}{
		{"zero amount", domain.Input{ArtistID: "ap1", AmountCents: 0, Type: domain.TypeOneTime}, "amountcents must be greater than 0"},
		{"bad type", domain.Input{ArtistID: "ap1", AmountCents: 100, Type: "weekly"}, "type must be one of"},
		{"no artist", domain.Input{AmountCents: 100, Type: domain.TypeOneTime}, "artistid is required"},
		{"long message", domain.Input{ArtistID: "ap1", AmountCents: 100, Type: domain.TypeOneTime, Message: string(make([]byte, 501))}, "message must be at most 500"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u3", tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
	assert.Empty(t, repo.created)
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), "", domain.Input{ArtistID: "ap1", AmountCents: 100, Type: domain.TypeOneTime})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestCreate_UnknownArtist(t *testing.T) {
	svc, repo, a := newTestService()
	_, err := svc.Create(context.Background(), "u3", domain.Input{ArtistID: "ap9", AmountCents: 100, Type: domain.TypeOneTime})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, repo.created)
	assert.Empty(t, a.actions)
}

func TestGet(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.byID = map[string]*domain.Transaction{"s1": {ID: "s1"}}

	got, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = svc.Get(context.Background(), "s2")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
