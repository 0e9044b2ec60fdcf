package service

import (
	"context"

	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/export"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"gorm.io/gorm"
)

// EventApplications holds both partitions for one event, each newest first.
// A partition left out by the type filter is nil.
type EventApplications struct {
	Event   *models.Event
	Members []models.MemberApplication
	Guests  []models.GuestApplication
}

type CSVExport struct {
	Filename string
	Data     []byte
}

type QueryService interface {
	// ListByEvent returns the event's applications. typ is "", "member" or
	// "guest"; empty means both.
	ListByEvent(ctx context.Context, eventID, typ string, actor auth.Identity) (*EventApplications, error)
	ExportCSV(ctx context.Context, eventID string, actor auth.Identity) (*CSVExport, error)
	Availability(ctx context.Context, eventID string) (*Availability, error)
}

type queryService struct {
	repos    repository.Repositories
	capacity *CapacityEvaluator
	encoder  *export.Encoder
	opts     Options
}

func NewQueryService(repos repository.Repositories, capacity *CapacityEvaluator, encoder *export.Encoder, opts Options) QueryService {
	return &queryService{
		repos:    repos,
		capacity: capacity,
		encoder:  encoder,
		opts:     opts.withDefaults(),
	}
}

func parseType(typ string) (models.ApplicationType, error) {
	switch models.ApplicationType(typ) {
	case "", models.TypeMember, models.TypeGuest:
		return models.ApplicationType(typ), nil
	}
	return "", &ValidationError{Fields: map[string]string{"type": "must be member or guest"}}
}

func (s *queryService) ListByEvent(ctx context.Context, eventID, typ string, actor auth.Identity) (*EventApplications, error) {
	filter, err := parseType(typ)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
		return nil, err
	}
	return s.load(ctx, eventID, filter)
}

func (s *queryService) ExportCSV(ctx context.Context, eventID string, actor auth.Identity) (*CSVExport, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if err := verifyAdmin(ctx, s.repos.Admins, actor); err != nil {
		return nil, err
	}

	apps, err := s.load(ctx, eventID, "")
	if err != nil {
		return nil, err
	}

	data, err := s.encoder.Encode(apps.Members, apps.Guests)
	if err != nil {
		return nil, classify(err)
	}
	return &CSVExport{
		Filename: export.Filename(eventID, s.opts.Now()),
		Data:     data,
	}, nil
}

func (s *queryService) Availability(ctx context.Context, eventID string) (*Availability, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	event, err := s.repos.Events.FindByID(ctx, eventID)
	if err != nil {
		return nil, classify(notFound(err, ErrEventNotFound))
	}
	a, err := s.capacity.Availability(ctx, s.repos.DB.WithContext(ctx), event)
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

// load reads both partitions in one snapshot so an export never mixes states
// from before and after a concurrent apply or cancel.
func (s *queryService) load(ctx context.Context, eventID string, filter models.ApplicationType) (*EventApplications, error) {
	event, err := s.repos.Events.FindByID(ctx, eventID)
	if err != nil {
		return nil, classify(notFound(err, ErrEventNotFound))
	}

	out := &EventApplications{Event: event}
	db := s.repos.DB.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		if filter != models.TypeGuest {
			if out.Members, err = s.repos.MemberApplications.FindByEventID(ctx, tx, eventID); err != nil {
				return err
			}
		}
		if filter != models.TypeMember {
			if out.Guests, err = s.repos.GuestApplications.FindByEventID(ctx, tx, eventID); err != nil {
				return err
			}
		}
		return nil
	}, repository.SnapshotTx(db))
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
