package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/metrics"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"gorm.io/gorm"
)

const proxyCandidateLimit = 50

type MemberApplicationService interface {
	Apply(ctx context.Context, eventID, userID string) (*models.MemberApplication, error)
	ApplyOnBehalf(ctx context.Context, eventID, userID string, actor auth.Identity) (*models.MemberApplication, error)
	Cancel(ctx context.Context, applicationID string, actor auth.Identity) (*models.MemberApplication, error)
	ListMine(ctx context.Context, userID string) ([]models.MemberApplication, error)
	SearchProxyCandidates(ctx context.Context, eventID, query string, actor auth.Identity) ([]models.Member, error)
}

type memberApplicationService struct {
	repos    repository.Repositories
	capacity *CapacityEvaluator
	opts     Options
}

func NewMemberApplicationService(repos repository.Repositories, capacity *CapacityEvaluator, opts Options) MemberApplicationService {
	return &memberApplicationService{
		repos:    repos,
		capacity: capacity,
		opts:     opts.withDefaults(),
	}
}

func (s *memberApplicationService) Apply(ctx context.Context, eventID, userID string) (*models.MemberApplication, error) {
	return s.apply(ctx, eventID, userID, nil)
}

func (s *memberApplicationService) ApplyOnBehalf(ctx context.Context, eventID, userID string, actor auth.Identity) (*models.MemberApplication, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
		return nil, err
	}
	adminID := actor.ID
	return s.apply(ctx, eventID, userID, &adminID)
}

func (s *memberApplicationService) apply(ctx context.Context, eventID, userID string, proxyAdminID *string) (*models.MemberApplication, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var result *models.MemberApplication

	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the event row; concurrent applications for it queue here
		event, err := s.repos.Events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if !event.Open() {
			return ErrEventNotFound
		}

		member, err := s.repos.Members.FindByID(ctx, tx, userID)
		if err != nil {
			return notFound(err, ErrMemberNotFound)
		}
		if !member.IsActive {
			return ErrMemberNotFound
		}

		// 2. One applied row per member and event
		_, err = s.repos.MemberApplications.FindAppliedByUserAndEvent(ctx, tx, userID, eventID)
		if err == nil {
			return ErrDuplicateApplication
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 3. Seats are shared with guests
		if err := s.capacity.Check(ctx, tx, event); err != nil {
			return err
		}

		app := &models.MemberApplication{
			ID:           uuid.NewString(),
			EventID:      eventID,
			UserID:       userID,
			Status:       models.StatusApplied,
			AppliedAt:    s.opts.Now(),
			ProxyAdminID: proxyAdminID,
		}
		if err := s.repos.MemberApplications.Create(ctx, tx, app); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateApplication
			}
			return err
		}
		result = app
		return nil
	})

	err = classify(err)
	metrics.RecordApplication(string(models.TypeMember), outcomeOf(err))
	if err != nil {
		return nil, err
	}

	s.opts.notify(ctx, RoutingApplicationCreated, ApplicationMessage{
		Kind:          models.TypeMember,
		ApplicationID: result.ID,
		EventID:       result.EventID,
		UserID:        result.UserID,
		Status:        result.Status,
		OccurredAt:    result.AppliedAt,
	})
	return result, nil
}

// Cancel cancels as the owning member (before the event's deadline) or as an
// admin (always).
func (s *memberApplicationService) Cancel(ctx context.Context, applicationID string, actor auth.Identity) (*models.MemberApplication, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	switch {
	case actor.IsAdmin():
		if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
			return nil, err
		}
	case actor.IsMember() && actor.ID != "":
	default:
		return nil, ErrUnauthenticated
	}

	var result *models.MemberApplication
	now := s.opts.Now()

	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := s.repos.MemberApplications.FindByID(ctx, tx, applicationID)
		if err != nil {
			return notFound(err, ErrApplicationNotFound)
		}
		if actor.IsMember() && app.UserID != actor.ID {
			return ErrNotOwner
		}
		if app.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}

		if actor.IsMember() {
			event, err := s.repos.Events.FindByIDForUpdate(ctx, tx, app.EventID)
			if err != nil {
				return notFound(err, ErrEventNotFound)
			}
			if !event.CancellableAt(now) {
				return ErrDeadlinePassed
			}
		}

		ok, err := s.repos.MemberApplications.MarkCancelled(ctx, tx, app.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyCancelled
		}

		app.Status = models.StatusCancelled
		app.CancelledAt = &now
		result = app
		return nil
	})
	if err = classify(err); err != nil {
		return nil, err
	}

	metrics.RecordCancellation(string(models.TypeMember), string(actor.Role))
	s.opts.notify(ctx, RoutingApplicationCancelled, ApplicationMessage{
		Kind:          models.TypeMember,
		ApplicationID: result.ID,
		EventID:       result.EventID,
		UserID:        result.UserID,
		Status:        result.Status,
		OccurredAt:    now,
	})
	return result, nil
}

func (s *memberApplicationService) ListMine(ctx context.Context, userID string) ([]models.MemberApplication, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	apps, err := s.repos.MemberApplications.FindByUserID(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return apps, nil
}

// SearchProxyCandidates lists members an admin can still sign up for the
// event. Members already holding an applied row are left out.
func (s *memberApplicationService) SearchProxyCandidates(ctx context.Context, eventID, query string, actor auth.Identity) ([]models.Member, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
		return nil, err
	}
	event, err := s.repos.Events.FindByID(ctx, eventID)
	if err != nil {
		return nil, classify(notFound(err, ErrEventNotFound))
	}
	if !event.Open() {
		return nil, ErrEventNotFound
	}

	members, err := s.repos.Members.SearchNotApplied(ctx, eventID, query, proxyCandidateLimit)
	if err != nil {
		return nil, classify(err)
	}
	return members, nil
}
