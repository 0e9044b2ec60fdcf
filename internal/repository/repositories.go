package repository

import "gorm.io/gorm"

// Repositories bundles the stores the application workflow reads and writes.
// DB starts the transactions the repositories' tx parameters run in.
type Repositories struct {
	DB                 *gorm.DB
	Events             EventRepository
	Members            MemberRepository
	Admins             AdminRepository
	MemberApplications MemberApplicationRepository
	GuestApplications  GuestApplicationRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		DB:                 db,
		Events:             NewEventRepository(db),
		Members:            NewMemberRepository(db),
		Admins:             NewAdminRepository(db),
		MemberApplications: NewMemberApplicationRepository(db),
		GuestApplications:  NewGuestApplicationRepository(db),
	}
}
