package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB, values ...any) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, db.Create(v).Error)
	}
}

func sampleEvent(id string) *models.Event {
	return &models.Event{ID: id, Title: "Mixer", EventDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func TestActiveApplicationIsUnique(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	seed(t, db,
		sampleEvent("e1"),
		&models.Member{ID: "u1", FullName: "Alice", Email: "a@example.com", IsActive: true},
		&models.MemberApplication{ID: "a1", EventID: "e1", UserID: "u1", Status: models.StatusApplied, AppliedAt: now},
	)

	err := db.Omit("Member", "Event").Create(&models.MemberApplication{
		ID: "a2", EventID: "e1", UserID: "u1", Status: models.StatusApplied, AppliedAt: now,
	}).Error
	assert.Error(t, err)

	// Cancelled rows do not take part in the index
	seed(t, db, &models.MemberApplication{ID: "a3", EventID: "e1", UserID: "u1", Status: models.StatusCancelled, AppliedAt: now})
}

func TestMarkCancelled_OnlyFromApplied(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGuestApplicationRepository(db)
	seed(t, db,
		sampleEvent("e1"),
		&models.GuestApplication{ID: "g1", EventID: "e1", Email: "g@example.com", FullName: "G", Status: models.StatusApplied, AppliedAt: time.Now().UTC()},
	)

	ok, err := repo.MarkCancelled(context.Background(), db, "g1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCancelled(context.Background(), db, "g1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repo.CountApplied(context.Background(), db, "e1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearchNotApplied(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	seed(t, db,
		sampleEvent("e1"),
		&models.Member{ID: "u1", FullName: "Alice Tanaka", Email: "alice@example.com", CompanyName: "100% Foods", IsActive: true},
		&models.Member{ID: "u2", FullName: "Bob Suzuki", Email: "bob@example.com", CompanyName: "Acme", IsActive: true},
		&models.Member{ID: "u3", FullName: "Carol", Email: "carol@example.com", CompanyName: "Acme", IsActive: true},
		&models.MemberApplication{ID: "a1", EventID: "e1", UserID: "u3", Status: models.StatusApplied, AppliedAt: time.Now().UTC()},
	)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"u1", "u2"}},
		{"acme", []string{"u2"}},
		{"BOB@", []string{"u2"}},
		{"100%", []string{"u1"}},
		{"_", nil},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			members, err := repo.SearchNotApplied(context.Background(), "e1", tc.query, 50)
			require.NoError(t, err)

			var ids []string
			for _, m := range members {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestSearchNotApplied_Limit(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	seed(t, db, sampleEvent("e1"))
	for _, id := range []string{"u1", "u2", "u3"} {
		seed(t, db, &models.Member{ID: id, FullName: "Member " + id, Email: id + "@example.com", IsActive: true})
	}

	members, err := repo.SearchNotApplied(context.Background(), "e1", "member", 2)

	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestEventUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)

	event := sampleEvent("e1")
	require.NoError(t, repo.Upsert(context.Background(), event))

	capacity := 20
	updated := sampleEvent("e1")
	updated.Title = "Renamed"
	updated.Capacity = &capacity
	updated.AllowGuest = true
	require.NoError(t, repo.Upsert(context.Background(), updated))

	got, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	require.NotNil(t, got.Capacity)
	assert.Equal(t, 20, *got.Capacity)
	assert.True(t, got.AllowGuest)
}

func TestFindByIDForUpdate_InTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	seed(t, db, sampleEvent("e1"))

	err := db.Transaction(func(tx *gorm.DB) error {
		event, err := repo.FindByIDForUpdate(context.Background(), tx, "e1")
		if err != nil {
			return err
		}
		assert.Equal(t, "e1", event.ID)
		return nil
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.FindByIDForUpdate(context.Background(), tx, "missing")
		return err
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
