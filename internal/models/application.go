package models

import "time"

type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "applied"
	StatusCancelled ApplicationStatus = "cancelled"
)

// ApplicationType distinguishes the two application partitions.
type ApplicationType string

const (
	TypeMember ApplicationType = "member"
	TypeGuest  ApplicationType = "guest"
)

type MemberApplication struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	EventID      string            `gorm:"size:36;not null;index" json:"event_id"`
	UserID       string            `gorm:"size:36;not null;index" json:"user_id"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'applied'" json:"status"`
	AppliedAt    time.Time         `gorm:"not null" json:"applied_at"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	ProxyAdminID *string           `gorm:"size:36" json:"proxy_admin_id,omitempty"`

	Member *Member `gorm:"foreignKey:UserID" json:"member,omitempty"`
	Event  *Event  `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (MemberApplication) TableName() string { return "event_applications" }

type GuestApplication struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	EventID     string            `gorm:"size:36;not null;index" json:"event_id"`
	Email       string            `gorm:"not null" json:"email"`
	FullName    string            `gorm:"not null" json:"full_name"`
	CompanyName *string           `json:"company_name,omitempty"`
	JobTitle    *string           `json:"job_title,omitempty"`
	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'applied'" json:"status"`
	AppliedAt   time.Time         `gorm:"not null" json:"applied_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
}
