package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("member has already applied for this event")
	ErrCapacityExceeded     = errors.New("event is full")
	ErrCapacityUnverified   = errors.New("could not verify capacity")
	ErrDeadlinePassed       = errors.New("cancellation deadline has passed")
	ErrGuestsNotAllowed     = errors.New("event does not accept guest applications")
	ErrAlreadyCancelled     = errors.New("application is already cancelled")
	ErrNotOwner             = errors.New("application belongs to another member")
	ErrUnauthenticated      = errors.New("authentication required")

	// ErrTemporarilyUnavailable means the data store did not answer in time.
	// The caller may retry.
	ErrTemporarilyUnavailable = errors.New("service temporarily unavailable")
	ErrDataStore              = errors.New("data store error")
)

var classified = []error{
	ErrEventNotFound, ErrMemberNotFound, ErrApplicationNotFound, ErrDuplicateApplication,
	ErrCapacityExceeded, ErrCapacityUnverified, ErrDeadlinePassed, ErrGuestsNotAllowed,
	ErrAlreadyCancelled, ErrNotOwner, ErrUnauthenticated, ErrTemporarilyUnavailable, ErrDataStore,
}

// ValidationError reports invalid input per field. The operation was not attempted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// classify leaves workflow errors untouched and turns anything else into a
// data store error, distinguishing timeouts.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range classified {
		if errors.Is(err, known) {
			return err
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrDataStore, err)
}

// notFound maps gorm's missing-row error to the workflow's own sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// outcomeOf labels an apply result for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrDuplicateApplication):
		return "duplicate"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrGuestsNotAllowed):
		return "guests_not_allowed"
	case errors.Is(err, ErrTemporarilyUnavailable):
		return "unavailable"
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return "invalid"
		}
		return "rejected"
	}
}
