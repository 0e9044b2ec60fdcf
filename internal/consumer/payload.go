package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
)

// date accepts both a bare calendar date and an RFC 3339 timestamp.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type refPayload struct {
	ID string `json:"id"`
}

func (p *refPayload) key() string { return p.ID }

type eventPayload struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	EventDate      date       `json:"event_date"`
	Capacity       *int       `json:"capacity"`
	CancelDeadline *time.Time `json:"cancel_deadline"`
	AllowGuest     bool       `json:"allow_guest"`
}

func (p *eventPayload) key() string { return p.ID }

func (p *eventPayload) model() *models.Event {
	return &models.Event{
		ID:             p.ID,
		Title:          p.Title,
		EventDate:      p.EventDate.Time,
		Capacity:       p.Capacity,
		CancelDeadline: p.CancelDeadline,
		AllowGuest:     p.AllowGuest,
		UpdatedAt:      time.Now().UTC(),
	}
}

// IsActive is a pointer so a payload without it keeps the account active.
type memberPayload struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	IsActive    *bool  `json:"is_active"`
}

func (p *memberPayload) key() string { return p.ID }

func (p *memberPayload) model() *models.Member {
	return &models.Member{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       p.Email,
		CompanyName: p.CompanyName,
		IsActive:    p.IsActive == nil || *p.IsActive,
		UpdatedAt:   time.Now().UTC(),
	}
}

type adminPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (p *adminPayload) key() string { return p.ID }

func (p *adminPayload) model() *models.Admin {
	return &models.Admin{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		IsActive:  p.IsActive == nil || *p.IsActive,
		UpdatedAt: time.Now().UTC(),
	}
}
