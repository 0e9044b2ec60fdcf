package service

import (
	"context"
	"fmt"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"gorm.io/gorm"
)

// Availability is an event's seat usage. Capacity and Remaining are nil for
// events without a limit.
type Availability struct {
	EventID   string
	Capacity  *int
	Applied   int64
	Remaining *int64
}

// CapacityEvaluator decides whether an event can take one more application.
// Member and guest applications share the same seats.
type CapacityEvaluator struct {
	members repository.MemberApplicationRepository
	guests  repository.GuestApplicationRepository
}

func NewCapacityEvaluator(members repository.MemberApplicationRepository, guests repository.GuestApplicationRepository) *CapacityEvaluator {
	return &CapacityEvaluator{members: members, guests: guests}
}

// Count returns the number of applied rows across both application kinds.
func (c *CapacityEvaluator) Count(ctx context.Context, tx *gorm.DB, eventID string) (int64, error) {
	memberCount, err := c.members.CountApplied(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	guestCount, err := c.guests.CountApplied(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	return memberCount + guestCount, nil
}

// Check returns nil when the event accepts another application. It must run
// in the transaction holding the event lock, before the insert.
func (c *CapacityEvaluator) Check(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	if event.Capacity == nil {
		return nil
	}
	applied, err := c.Count(ctx, tx, event.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCapacityUnverified, err)
	}
	if applied >= int64(*event.Capacity) {
		return ErrCapacityExceeded
	}
	return nil
}

func (c *CapacityEvaluator) Availability(ctx context.Context, tx *gorm.DB, event *models.Event) (*Availability, error) {
	applied, err := c.Count(ctx, tx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapacityUnverified, err)
	}

	a := &Availability{EventID: event.ID, Capacity: event.Capacity, Applied: applied}
	if event.Capacity != nil {
		remaining := int64(*event.Capacity) - applied
		if remaining < 0 {
			remaining = 0
		}
		a.Remaining = &remaining
	}
	return a, nil
}
