package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means err.Error()
}

var errorMappings = []errorMapping{
	{service.ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND", ""},
	{service.ErrMemberNotFound, http.StatusNotFound, "MEMBER_NOT_FOUND", ""},
	{service.ErrApplicationNotFound, http.StatusNotFound, "APPLICATION_NOT_FOUND", ""},
	{service.ErrDuplicateApplication, http.StatusConflict, "DUPLICATE_APPLICATION", ""},
	{service.ErrCapacityExceeded, http.StatusConflict, "CAPACITY_EXCEEDED", ""},
	{service.ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED", ""},
	{service.ErrDeadlinePassed, http.StatusUnprocessableEntity, "DEADLINE_PASSED", ""},
	{service.ErrGuestsNotAllowed, http.StatusForbidden, "GUESTS_NOT_ALLOWED", ""},
	{service.ErrNotOwner, http.StatusForbidden, "NOT_OWNER", ""},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", ""},
	{service.ErrCapacityUnverified, http.StatusServiceUnavailable, "CAPACITY_UNVERIFIED", "could not verify capacity, please retry"},
	{service.ErrTemporarilyUnavailable, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE", "service temporarily unavailable, please retry"},
	{service.ErrDataStore, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
}

// toHTTPError maps a service error to the response the error handler renders.
func toHTTPError(err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return middleware.NewValidationHTTPError(ve.Fields)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = m.target.Error()
			}
			he := middleware.NewHTTPError(m.status, m.code, msg)
			if m.status >= http.StatusInternalServerError {
				he.Internal = err
			}
			return he
		}
	}

	he := middleware.NewHTTPError(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	he.Internal = err
	return he
}

func identityFrom(c echo.Context) (auth.Identity, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return auth.Identity{}, toHTTPError(service.ErrUnauthenticated)
	}
	return sess.Identity, nil
}
