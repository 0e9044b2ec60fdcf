package dto

import (
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
)

type EventResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	EventDate      time.Time  `json:"event_date"`
	Capacity       *int       `json:"capacity"`
	CancelDeadline *time.Time `json:"cancel_deadline"`
	AllowGuest     bool       `json:"allow_guest"`
}

type MemberResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

type MemberApplicationResponse struct {
	ID           string                   `json:"id"`
	EventID      string                   `json:"event_id"`
	UserID       string                   `json:"user_id"`
	Status       models.ApplicationStatus `json:"status"`
	AppliedAt    time.Time                `json:"applied_at"`
	CancelledAt  *time.Time               `json:"cancelled_at,omitempty"`
	ProxyAdminID *string                  `json:"proxy_admin_id,omitempty"`
	Member       *MemberResponse          `json:"member,omitempty"`
	Event        *EventResponse           `json:"event,omitempty"`
}

type GuestApplicationResponse struct {
	ID          string                   `json:"id"`
	EventID     string                   `json:"event_id"`
	Email       string                   `json:"email"`
	FullName    string                   `json:"full_name"`
	CompanyName *string                  `json:"company_name,omitempty"`
	JobTitle    *string                  `json:"job_title,omitempty"`
	Status      models.ApplicationStatus `json:"status"`
	AppliedAt   time.Time                `json:"applied_at"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
}

type EventApplicationsResponse struct {
	Event   EventResponse               `json:"event"`
	Members []MemberApplicationResponse `json:"members"`
	Guests  []GuestApplicationResponse  `json:"guests"`
}

type AvailabilityResponse struct {
	EventID   string `json:"event_id"`
	Capacity  *int   `json:"capacity"`
	Applied   int64  `json:"applied_count"`
	Remaining *int64 `json:"remaining"`
	Full      bool   `json:"full"`
}

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func ToEventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		EventDate:      e.EventDate,
		Capacity:       e.Capacity,
		CancelDeadline: e.CancelDeadline,
		AllowGuest:     e.AllowGuest,
	}
}

func ToMemberResponse(m *models.Member) MemberResponse {
	return MemberResponse{
		ID:          m.ID,
		FullName:    m.FullName,
		Email:       m.Email,
		CompanyName: m.CompanyName,
	}
}

func ToMemberApplicationResponse(a *models.MemberApplication) MemberApplicationResponse {
	resp := MemberApplicationResponse{
		ID:           a.ID,
		EventID:      a.EventID,
		UserID:       a.UserID,
		Status:       a.Status,
		AppliedAt:    a.AppliedAt,
		CancelledAt:  a.CancelledAt,
		ProxyAdminID: a.ProxyAdminID,
	}
	if a.Member != nil {
		m := ToMemberResponse(a.Member)
		resp.Member = &m
	}
	if a.Event != nil {
		e := ToEventResponse(a.Event)
		resp.Event = &e
	}
	return resp
}

func ToGuestApplicationResponse(a *models.GuestApplication) GuestApplicationResponse {
	return GuestApplicationResponse{
		ID:          a.ID,
		EventID:     a.EventID,
		Email:       a.Email,
		FullName:    a.FullName,
		CompanyName: a.CompanyName,
		JobTitle:    a.JobTitle,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		CancelledAt: a.CancelledAt,
	}
}

func ToMemberApplicationResponses(apps []models.MemberApplication) []MemberApplicationResponse {
	resp := make([]MemberApplicationResponse, len(apps))
	for i := range apps {
		resp[i] = ToMemberApplicationResponse(&apps[i])
	}
	return resp
}

func ToGuestApplicationResponses(apps []models.GuestApplication) []GuestApplicationResponse {
	resp := make([]GuestApplicationResponse, len(apps))
	for i := range apps {
		resp[i] = ToGuestApplicationResponse(&apps[i])
	}
	return resp
}
