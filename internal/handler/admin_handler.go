package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/dto"
	"github.com/mackey55555/ceo-club-app-sub000/internal/export"
	"github.com/mackey55555/ceo-club-app-sub000/internal/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
)

// AdminHandler is the admin console's view of an event's applications.
type AdminHandler struct {
	members service.MemberApplicationService
	guests  service.GuestApplicationService
	queries service.QueryService
}

func NewAdminHandler(members service.MemberApplicationService, guests service.GuestApplicationService, queries service.QueryService) *AdminHandler {
	return &AdminHandler{members: members, guests: guests, queries: queries}
}

// RegisterRoutes mounts the admin API on g. g must already require an admin
// session.
func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/events/:id/applications", h.ListApplications)
	g.POST("/events/:id/applications", h.ApplyOnBehalf)
	g.GET("/events/:id/applications/export", h.Export)
	g.GET("/events/:id/proxy-candidates", h.ProxyCandidates)
	g.DELETE("/applications/:id", h.CancelMemberApplication)
	g.DELETE("/guest-applications/:id", h.CancelGuestApplication)
}

func (h *AdminHandler) ListApplications(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	apps, err := h.queries.ListByEvent(c.Request().Context(), c.Param("id"), c.QueryParam("type"), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.EventApplicationsResponse{
		Event:   dto.ToEventResponse(apps.Event),
		Members: dto.ToMemberApplicationResponses(apps.Members),
		Guests:  dto.ToGuestApplicationResponses(apps.Guests),
	})
}

func (h *AdminHandler) ApplyOnBehalf(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	var req dto.ProxyApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return middleware.NewValidationHTTPError(map[string]string{"user_id": "is required"})
	}

	app, err := h.members.ApplyOnBehalf(c.Request().Context(), c.Param("id"), req.UserID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToMemberApplicationResponse(app))
}

func (h *AdminHandler) Export(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	out, err := h.queries.ExportCSV(c.Request().Context(), c.Param("id"), id)
	if err != nil {
		return toHTTPError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(out.Filename))
	return c.Blob(http.StatusOK, export.ContentType, out.Data)
}

func (h *AdminHandler) ProxyCandidates(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	members, err := h.members.SearchProxyCandidates(c.Request().Context(), c.Param("id"), c.QueryParam("q"), id)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.MemberResponse, len(members))
	for i := range members {
		resp[i] = dto.ToMemberResponse(&members[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CancelMemberApplication(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	app, err := h.members.Cancel(c.Request().Context(), c.Param("id"), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToMemberApplicationResponse(app))
}

func (h *AdminHandler) CancelGuestApplication(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	app, err := h.guests.CancelGuest(c.Request().Context(), c.Param("id"), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToGuestApplicationResponse(app))
}
