package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/metrics"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"gorm.io/gorm"
)

// GuestApplicationInput is what the public form collects. The same email may
// apply any number of times.
type GuestApplicationInput struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	FullName    string  `json:"full_name" validate:"required,max=100"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	JobTitle    *string `json:"job_title" validate:"omitempty,max=100"`
}

func (in *GuestApplicationInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.CompanyName = trimOptional(in.CompanyName)
	in.JobTitle = trimOptional(in.JobTitle)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type GuestApplicationService interface {
	// OpenEvent returns the event if it takes guest applications.
	OpenEvent(ctx context.Context, eventID string) (*models.Event, error)
	ApplyAsGuest(ctx context.Context, eventID string, in GuestApplicationInput) (*models.GuestApplication, error)
	CancelGuest(ctx context.Context, applicationID string, actor auth.Identity) (*models.GuestApplication, error)
}

type guestApplicationService struct {
	repos    repository.Repositories
	capacity *CapacityEvaluator
	validate *validator.Validate
	opts     Options
}

func NewGuestApplicationService(repos repository.Repositories, capacity *CapacityEvaluator, opts Options) GuestApplicationService {
	return &guestApplicationService{
		repos:    repos,
		capacity: capacity,
		validate: newValidator(),
		opts:     opts.withDefaults(),
	}
}

func (s *guestApplicationService) OpenEvent(ctx context.Context, eventID string) (*models.Event, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	event, err := s.repos.Events.FindByID(ctx, eventID)
	if err != nil {
		return nil, classify(notFound(err, ErrEventNotFound))
	}
	if !event.Open() {
		return nil, ErrEventNotFound
	}
	if !event.AllowGuest {
		return nil, ErrGuestsNotAllowed
	}
	return event, nil
}

func (s *guestApplicationService) ApplyAsGuest(ctx context.Context, eventID string, in GuestApplicationInput) (*models.GuestApplication, error) {
	in.normalize()
	if err := s.check(in); err != nil {
		metrics.RecordApplication(string(models.TypeGuest), outcomeOf(err))
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	var result *models.GuestApplication

	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Same lock as member applications so both kinds share one queue
		event, err := s.repos.Events.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if !event.Open() {
			return ErrEventNotFound
		}
		if !event.AllowGuest {
			return ErrGuestsNotAllowed
		}

		if err := s.capacity.Check(ctx, tx, event); err != nil {
			return err
		}

		app := &models.GuestApplication{
			ID:          uuid.NewString(),
			EventID:     eventID,
			Email:       in.Email,
			FullName:    in.FullName,
			CompanyName: in.CompanyName,
			JobTitle:    in.JobTitle,
			Status:      models.StatusApplied,
			AppliedAt:   s.opts.Now(),
		}
		if err := s.repos.GuestApplications.Create(ctx, tx, app); err != nil {
			return err
		}
		result = app
		return nil
	})

	err = classify(err)
	metrics.RecordApplication(string(models.TypeGuest), outcomeOf(err))
	if err != nil {
		return nil, err
	}

	s.opts.notify(ctx, RoutingApplicationCreated, ApplicationMessage{
		Kind:          models.TypeGuest,
		ApplicationID: result.ID,
		EventID:       result.EventID,
		Email:         result.Email,
		Status:        result.Status,
		OccurredAt:    result.AppliedAt,
	})
	return result, nil
}

// CancelGuest is admin only. Guests cannot cancel themselves, so there is no
// deadline to apply.
func (s *guestApplicationService) CancelGuest(ctx context.Context, applicationID string, actor auth.Identity) (*models.GuestApplication, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
		return nil, err
	}

	var result *models.GuestApplication
	now := s.opts.Now()

	err := s.repos.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := s.repos.GuestApplications.FindByID(ctx, tx, applicationID)
		if err != nil {
			return notFound(err, ErrApplicationNotFound)
		}
		if app.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}

		ok, err := s.repos.GuestApplications.MarkCancelled(ctx, tx, app.ID, now)
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

	metrics.RecordCancellation(string(models.TypeGuest), string(actor.Role))
	s.opts.notify(ctx, RoutingApplicationCancelled, ApplicationMessage{
		Kind:          models.TypeGuest,
		ApplicationID: result.ID,
		EventID:       result.EventID,
		Email:         result.Email,
		Status:        result.Status,
		OccurredAt:    now,
	})
	return result, nil
}

func (s *guestApplicationService) check(in GuestApplicationInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"input": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
