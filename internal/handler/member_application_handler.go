package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/dto"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
)

// MemberApplicationHandler serves the signed-in member's own applications.
type MemberApplicationHandler struct {
	svc     service.MemberApplicationService
	queries service.QueryService
}

func NewMemberApplicationHandler(svc service.MemberApplicationService, queries service.QueryService) *MemberApplicationHandler {
	return &MemberApplicationHandler{svc: svc, queries: queries}
}

// RegisterRoutes mounts the member API on g. g must already require a
// member session.
func (h *MemberApplicationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/events/:id/applications", h.Apply)
	g.GET("/events/:id/availability", h.Availability)
	g.DELETE("/applications/:id", h.Cancel)
	g.GET("/me/applications", h.ListMine)
}

func (h *MemberApplicationHandler) Apply(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}
	eventID := c.Param("id")
	if eventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	app, err := h.svc.Apply(c.Request().Context(), eventID, id.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToMemberApplicationResponse(app))
}

func (h *MemberApplicationHandler) Cancel(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	app, err := h.svc.Cancel(c.Request().Context(), c.Param("id"), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToMemberApplicationResponse(app))
}

func (h *MemberApplicationHandler) ListMine(c echo.Context) error {
	id, err := identityFrom(c)
	if err != nil {
		return err
	}

	apps, err := h.svc.ListMine(c.Request().Context(), id.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToMemberApplicationResponses(apps))
}

func (h *MemberApplicationHandler) Availability(c echo.Context) error {
	a, err := h.queries.Availability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toAvailabilityResponse(a))
}

func toAvailabilityResponse(a *service.Availability) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		EventID:   a.EventID,
		Capacity:  a.Capacity,
		Applied:   a.Applied,
		Remaining: a.Remaining,
		Full:      a.Remaining != nil && *a.Remaining == 0,
	}
}
