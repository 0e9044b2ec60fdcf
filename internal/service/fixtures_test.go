package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/export"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"github.com/mackey55555/ceo-club-app-sub000/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Fixtures ---

type fixture struct {
	t       *testing.T
	db      *gorm.DB
	repos   repository.Repositories
	clock   *fakeClock
	pub     *recordingPublisher
	members MemberApplicationService
	guests  GuestApplicationService
	queries QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	capacity := NewCapacityEvaluator(repos.MemberApplications, repos.GuestApplications)
	clock := &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}
	opts := Options{Timeout: 5 * time.Second, Now: clock.Now, Publisher: pub}

	return &fixture{
		t:       t,
		db:      db,
		repos:   repos,
		clock:   clock,
		pub:     pub,
		members: NewMemberApplicationService(repos, capacity, opts),
		guests:  NewGuestApplicationService(repos, capacity, opts),
		queries: NewQueryService(repos, capacity, export.NewEncoder(time.UTC), opts),
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func (f *fixture) event(capacity *int, allowGuest bool) *models.Event {
	f.t.Helper()
	e := &models.Event{
		ID:         uuid.NewString(),
		Title:      "Spring mixer",
		EventDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Capacity:   capacity,
		AllowGuest: allowGuest,
	}
	require.NoError(f.t, f.db.Create(e).Error)
	return e
}

func (f *fixture) member(name string) *models.Member {
	f.t.Helper()
	m := &models.Member{
		ID:          uuid.NewString(),
		FullName:    name,
		Email:       name + "@example.com",
		CompanyName: name + " Inc",
		IsActive:    true,
	}
	require.NoError(f.t, f.db.Create(m).Error)
	return m
}

func (f *fixture) admin() auth.Identity {
	f.t.Helper()
	a := &models.Admin{ID: uuid.NewString(), Email: "admin@example.com", Name: "Admin", IsActive: true}
	require.NoError(f.t, f.db.Create(a).Error)
	return auth.Identity{ID: a.ID, Role: auth.RoleAdmin}
}

func (f *fixture) appliedCount(eventID string) int64 {
	f.t.Helper()
	var members, guests int64
	require.NoError(f.t, f.db.Model(&models.MemberApplication{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusApplied).Count(&members).Error)
	require.NoError(f.t, f.db.Model(&models.GuestApplication{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusApplied).Count(&guests).Error)
	return members + guests
}

func memberIdentity(m *models.Member) auth.Identity {
	return auth.Identity{ID: m.ID, Role: auth.RoleMember}
}

func guestInput(name string) GuestApplicationInput {
	return GuestApplicationInput{Email: "guest@example.com", FullName: name}
}

// --- Fakes ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type published struct {
	routingKey string
	msg        ApplicationMessage
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{routingKey: routingKey, msg: payload.(ApplicationMessage)})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.routingKey
	}
	return out
}
