package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
)

// --- Mock MemberApplicationService ---

type mockMemberService struct {
	applyFn         func(ctx context.Context, eventID, userID string) (*models.MemberApplication, error)
	applyOnBehalfFn func(ctx context.Context, eventID, userID string, actor auth.Identity) (*models.MemberApplication, error)
	cancelFn        func(ctx context.Context, applicationID string, actor auth.Identity) (*models.MemberApplication, error)
	listMineFn      func(ctx context.Context, userID string) ([]models.MemberApplication, error)
	searchFn        func(ctx context.Context, eventID, query string, actor auth.Identity) ([]models.Member, error)
}

func (m *mockMemberService) Apply(ctx context.Context, eventID, userID string) (*models.MemberApplication, error) {
	return m.applyFn(ctx, eventID, userID)
}
func (m *mockMemberService) ApplyOnBehalf(ctx context.Context, eventID, userID string, actor auth.Identity) (*models.MemberApplication, error) {
	return m.applyOnBehalfFn(ctx, eventID, userID, actor)
}
func (m *mockMemberService) Cancel(ctx context.Context, applicationID string, actor auth.Identity) (*models.MemberApplication, error) {
	return m.cancelFn(ctx, applicationID, actor)
}
func (m *mockMemberService) ListMine(ctx context.Context, userID string) ([]models.MemberApplication, error) {
	return m.listMineFn(ctx, userID)
}
func (m *mockMemberService) SearchProxyCandidates(ctx context.Context, eventID, query string, actor auth.Identity) ([]models.Member, error) {
	return m.searchFn(ctx, eventID, query, actor)
}

// --- Mock GuestApplicationService ---

type mockGuestService struct {
	openFn   func(ctx context.Context, eventID string) (*models.Event, error)
	applyFn  func(ctx context.Context, eventID string, in service.GuestApplicationInput) (*models.GuestApplication, error)
	cancelFn func(ctx context.Context, applicationID string, actor auth.Identity) (*models.GuestApplication, error)
}

func (m *mockGuestService) OpenEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return m.openFn(ctx, eventID)
}
func (m *mockGuestService) ApplyAsGuest(ctx context.Context, eventID string, in service.GuestApplicationInput) (*models.GuestApplication, error) {
	return m.applyFn(ctx, eventID, in)
}
func (m *mockGuestService) CancelGuest(ctx context.Context, applicationID string, actor auth.Identity) (*models.GuestApplication, error) {
	return m.cancelFn(ctx, applicationID, actor)
}

// --- Mock QueryService ---

type mockQueryService struct {
	listFn         func(ctx context.Context, eventID, typ string, actor auth.Identity) (*service.EventApplications, error)
	exportFn       func(ctx context.Context, eventID string, actor auth.Identity) (*service.CSVExport, error)
	availabilityFn func(ctx context.Context, eventID string) (*service.Availability, error)
}

func (m *mockQueryService) ListByEvent(ctx context.Context, eventID, typ string, actor auth.Identity) (*service.EventApplications, error) {
	return m.listFn(ctx, eventID, typ, actor)
}
func (m *mockQueryService) ExportCSV(ctx context.Context, eventID string, actor auth.Identity) (*service.CSVExport, error) {
	return m.exportFn(ctx, eventID, actor)
}
func (m *mockQueryService) Availability(ctx context.Context, eventID string) (*service.Availability, error) {
	return m.availabilityFn(ctx, eventID)
}

// --- Helpers ---

var (
	memberAlice = auth.Identity{ID: "user-1", Role: auth.RoleMember}
	adminRoot   = auth.Identity{ID: "admin-1", Role: auth.RoleAdmin}
)

// newContext builds a context for a handler call with the id path param and,
// when actor is non-nil, a session as the auth middleware would store it.
func newContext(e *echo.Echo, method, target string, body io.Reader, contentType, id string, actor *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	if actor != nil {
		middleware.SetSession(c, &auth.Session{Identity: *actor})
	}
	return c, rec
}

func intPtr(n int) *int { return &n }

func int64Ptr(n int64) *int64 { return &n }
