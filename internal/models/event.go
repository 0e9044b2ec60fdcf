package models

import "time"

// Event is owned by the admin console and synced into this service.
type Event struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Title          string     `gorm:"not null" json:"title"`
	EventDate      time.Time  `gorm:"type:date;not null" json:"event_date"`
	Capacity       *int       `json:"capacity"`
	CancelDeadline *time.Time `json:"cancel_deadline"`
	AllowGuest     bool       `gorm:"not null;default:false" json:"allow_guest"`
	// RemovedAt is set when the admin console deletes the event. The row stays
	// so its applications can still be listed and exported.
	RemovedAt *time.Time `json:"removed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Open reports whether the event still takes applications.
func (e *Event) Open() bool {
	return e.RemovedAt == nil
}

// CancellableAt reports whether a member may still cancel their own
// application at t. Without a deadline cancellation is always allowed.
func (e *Event) CancellableAt(t time.Time) bool {
	return e.CancelDeadline == nil || t.Before(*e.CancelDeadline)
}
