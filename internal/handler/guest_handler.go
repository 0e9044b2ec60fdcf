package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/dto"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
)

const (
	tmplGuestApply       = "guest_apply.html"
	tmplGuestApplied     = "guest_applied.html"
	tmplGuestUnavailable = "guest_unavailable.html"
)

type guestPage struct {
	Title  string
	Event  *models.Event
	Form   dto.GuestApplicationRequest
	Fields map[string]string
	Error  string
}

// GuestHandler serves the public guest form and its JSON counterpart. Neither
// requires a session.
type GuestHandler struct {
	svc service.GuestApplicationService
}

func NewGuestHandler(svc service.GuestApplicationService) *GuestHandler {
	return &GuestHandler{svc: svc}
}

// RegisterRoutes mounts the form pages on pages and the JSON endpoint on api.
// submit wraps only the two routes that create applications.
func (h *GuestHandler) RegisterRoutes(pages, api *echo.Group, submit ...echo.MiddlewareFunc) {
	pages.GET("/events/:id/apply", h.ShowForm)
	pages.POST("/events/:id/apply", h.SubmitForm, submit...)
	pages.GET("/events/:id/applied", h.Applied)

	api.POST("/events/:id/guest-applications", h.Apply, submit...)
}

func (h *GuestHandler) ShowForm(c echo.Context) error {
	event, err := h.svc.OpenEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.renderUnavailable(c, err)
	}
	return c.Render(http.StatusOK, tmplGuestApply, guestPage{Title: event.Title, Event: event})
}

func (h *GuestHandler) SubmitForm(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := c.Param("id")

	var form dto.GuestApplicationRequest
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	_, err := h.svc.ApplyAsGuest(ctx, eventID, toGuestInput(form))
	if err == nil {
		return c.Redirect(http.StatusSeeOther, "/guest/events/"+eventID+"/applied")
	}

	if errors.Is(err, service.ErrEventNotFound) || errors.Is(err, service.ErrGuestsNotAllowed) {
		return h.renderUnavailable(c, err)
	}

	// Re-render with what the guest typed so nothing has to be re-entered
	event, openErr := h.svc.OpenEvent(ctx, eventID)
	if openErr != nil {
		return h.renderUnavailable(c, openErr)
	}
	page := guestPage{Title: event.Title, Event: event, Form: form, Error: guestMessage(err)}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		page.Fields = ve.Fields
	}
	return c.Render(statusOf(err), tmplGuestApply, page)
}

func (h *GuestHandler) Applied(c echo.Context) error {
	page := guestPage{Title: "お申し込み完了"}
	if event, err := h.svc.OpenEvent(c.Request().Context(), c.Param("id")); err == nil {
		page.Event = event
	}
	return c.Render(http.StatusOK, tmplGuestApplied, page)
}

func (h *GuestHandler) Apply(c echo.Context) error {
	var req dto.GuestApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	app, err := h.svc.ApplyAsGuest(c.Request().Context(), c.Param("id"), toGuestInput(req))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToGuestApplicationResponse(app))
}

func (h *GuestHandler) renderUnavailable(c echo.Context, err error) error {
	return c.Render(statusOf(err), tmplGuestUnavailable, guestPage{
		Title: "お申し込みいただけません",
		Error: guestMessage(err),
	})
}

func toGuestInput(req dto.GuestApplicationRequest) service.GuestApplicationInput {
	in := service.GuestApplicationInput{Email: req.Email, FullName: req.FullName}
	if req.CompanyName != "" {
		in.CompanyName = &req.CompanyName
	}
	if req.JobTitle != "" {
		in.JobTitle = &req.JobTitle
	}
	return in
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(toHTTPError(err), &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func guestMessage(err error) string {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return "入力内容をご確認ください。"
	case errors.Is(err, service.ErrEventNotFound):
		return "イベントが見つかりません。"
	case errors.Is(err, service.ErrGuestsNotAllowed):
		return "このイベントはゲストのお申し込みを受け付けていません。"
	case errors.Is(err, service.ErrCapacityExceeded):
		return "定員に達したため、お申し込みを締め切りました。"
	case errors.Is(err, service.ErrTemporarilyUnavailable), errors.Is(err, service.ErrCapacityUnverified):
		return "ただいま混み合っています。時間をおいて再度お試しください。"
	default:
		return "お申し込みを処理できませんでした。時間をおいて再度お試しください。"
	}
}
