package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/export"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListByEvent(t *testing.T) {
	f := newFixture(t)
	event := f.event(nil, true)
	admin := f.admin()
	alice, bob := f.member("alice"), f.member("bob")

	_, err := f.members.Apply(context.Background(), event.ID, alice.ID)
	require.NoError(t, err)
	f.clock.Set(f.clock.Now().Add(time.Minute))
	_, err = f.members.Apply(context.Background(), event.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.guests.ApplyAsGuest(context.Background(), event.ID, guestInput("Guest"))
	require.NoError(t, err)

	all, err := f.queries.ListByEvent(context.Background(), event.ID, "", admin)
	require.NoError(t, err)
	require.Len(t, all.Members, 2)
	require.Len(t, all.Guests, 1)
	assert.Equal(t, bob.ID, all.Members[0].UserID)
	require.NotNil(t, all.Members[0].Member)
	assert.Equal(t, "bob", all.Members[0].Member.FullName)

	members, err := f.queries.ListByEvent(context.Background(), event.ID, "member", admin)
	require.NoError(t, err)
	assert.Len(t, members.Members, 2)
	assert.Nil(t, members.Guests)

	guests, err := f.queries.ListByEvent(context.Background(), event.ID, "guest", admin)
	require.NoError(t, err)
	assert.Nil(t, guests.Members)
	assert.Len(t, guests.Guests, 1)
}

func TestListByEvent_Rejections(t *testing.T) {
	f := newFixture(t)
	event := f.event(nil, true)
	admin := f.admin()

	_, err := f.queries.ListByEvent(context.Background(), event.ID, "vip", admin)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = f.queries.ListByEvent(context.Background(), "missing", "", admin)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.queries.ListByEvent(context.Background(), event.ID, "", memberIdentity(f.member("alice")))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	event := f.event(nil, true)
	admin := f.admin()
	alice := f.member("alice")

	app, err := f.members.Apply(context.Background(), event.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.members.Cancel(context.Background(), app.ID, admin)
	require.NoError(t, err)
	_, err = f.members.Apply(context.Background(), event.ID, f.member("bob").ID)
	require.NoError(t, err)
	_, err = f.guests.ApplyAsGuest(context.Background(), event.ID, guestInput("Doe, Jane"))
	require.NoError(t, err)
	_, err = f.guests.ApplyAsGuest(context.Background(), event.ID, GuestApplicationInput{
		Email: "q@example.com", FullName: `The "Boss"`, JobTitle: strPtr("line1\nline2"),
	})
	require.NoError(t, err)

	out, err := f.queries.ExportCSV(context.Background(), event.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, "event_applications_"+event.ID+"_"+strconv.FormatInt(f.clock.Now().Unix(), 10)+".csv", out.Filename)
	require.True(t, bytes.HasPrefix(out.Data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out.Data), `"Doe, Jane"`)

	records, err := csv.NewReader(bytes.NewReader(out.Data[3:])).ReadAll()
	require.NoError(t, err)

	var memberRows, guestRows int64
	require.NoError(t, f.db.Model(&models.MemberApplication{}).Where("event_id = ?", event.ID).Count(&memberRows).Error)
	require.NoError(t, f.db.Model(&models.GuestApplication{}).Where("event_id = ?", event.ID).Count(&guestRows).Error)
	assert.Len(t, records, 1+int(memberRows+guestRows))

	var names []string
	for _, r := range records[1:] {
		names = append(names, r[1])
	}
	assert.Contains(t, names, "Doe, Jane")
	assert.Contains(t, names, `The "Boss"`)
	assert.Equal(t, "会員", records[1][0])
	assert.Equal(t, "ゲスト", records[len(records)-1][0])

	var cancelledRows int
	for _, r := range records[1:] {
		if r[5] == "キャンセル" {
			cancelledRows++
			assert.NotEqual(t, "-", r[7])
		}
	}
	assert.Equal(t, 1, cancelledRows)
}

func TestExportCSV_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	event := f.event(nil, true)

	_, err := f.queries.ExportCSV(context.Background(), event.ID, memberIdentity(f.member("alice")))

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestQueryAvailability(t *testing.T) {
	f := newFixture(t)
	event := f.event(intPtr(3), true)
	_, err := f.guests.ApplyAsGuest(context.Background(), event.ID, guestInput("Guest"))
	require.NoError(t, err)

	a, err := f.queries.Availability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Applied)
	assert.Equal(t, int64(2), *a.Remaining)

	_, err = f.queries.Availability(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRemovedEvent_ClosedToApplicationsButStillListed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()
	event := f.event(intPtr(10), true)
	alice := f.member("alice")
	bob := f.member("bob")

	_, err := f.members.Apply(ctx, event.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.guests.ApplyAsGuest(ctx, event.ID, guestInput("Early Guest"))
	require.NoError(t, err)

	require.NoError(t, f.repos.Events.MarkRemoved(ctx, event.ID, f.clock.Now()))

	_, err = f.members.Apply(ctx, event.ID, bob.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.members.ApplyOnBehalf(ctx, event.ID, bob.ID, admin)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.guests.ApplyAsGuest(ctx, event.ID, guestInput("Late Guest"))
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.guests.OpenEvent(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.members.SearchProxyCandidates(ctx, event.ID, "", admin)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Equal(t, int64(2), f.appliedCount(event.ID))

	all, err := f.queries.ListByEvent(ctx, event.ID, "", admin)
	require.NoError(t, err)
	assert.Len(t, all.Members, 1)
	assert.Len(t, all.Guests, 1)

	out, err := f.queries.ExportCSV(ctx, event.ID, admin)
	require.NoError(t, err)
	assert.Contains(t, string(out.Data), "alice")
}

type txRecordingMembers struct {
	repository.MemberApplicationRepository
	seen *[]*gorm.DB
}

func (r txRecordingMembers) FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.MemberApplication, error) {
	*r.seen = append(*r.seen, tx)
	return r.MemberApplicationRepository.FindByEventID(ctx, tx, eventID)
}

type txRecordingGuests struct {
	repository.GuestApplicationRepository
	seen *[]*gorm.DB
}

func (r txRecordingGuests) FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.GuestApplication, error) {
	*r.seen = append(*r.seen, tx)
	return r.GuestApplicationRepository.FindByEventID(ctx, tx, eventID)
}

func TestExportCSV_ReadsPartitionsInOneTransaction(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	event := f.event(nil, true)

	var seen []*gorm.DB
	repos := f.repos
	repos.MemberApplications = txRecordingMembers{MemberApplicationRepository: f.repos.MemberApplications, seen: &seen}
	repos.GuestApplications = txRecordingGuests{GuestApplicationRepository: f.repos.GuestApplications, seen: &seen}
	capacity := NewCapacityEvaluator(repos.MemberApplications, repos.GuestApplications)
	queries := NewQueryService(repos, capacity, export.NewEncoder(time.UTC), Options{Now: f.clock.Now})

	_, err := queries.ExportCSV(context.Background(), event.ID, admin)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1])
	_, inTx := seen[0].Statement.ConnPool.(*sql.Tx)
	assert.True(t, inTx)
}
