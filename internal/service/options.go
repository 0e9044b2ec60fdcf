package service

import (
	"context"
	"errors"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

const (
	RoutingApplicationCreated   = "application.created"
	RoutingApplicationCancelled = "application.cancelled"
)

// Publisher is satisfied by rabbitmq.Publisher.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type ApplicationMessage struct {
	Kind          models.ApplicationType   `json:"kind"`
	ApplicationID string                   `json:"application_id"`
	EventID       string                   `json:"event_id"`
	UserID        string                   `json:"user_id,omitempty"`
	Email         string                   `json:"email,omitempty"`
	Status        models.ApplicationStatus `json:"status"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

type Options struct {
	// Timeout bounds each unit of work against the data store.
	Timeout   time.Duration
	Now       func() time.Time
	Publisher Publisher
	Logger    *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.Timeout)
}

// notify publishes after commit. The write already stands on its own, so a
// failed publish is logged and dropped.
func (o Options) notify(ctx context.Context, routingKey string, msg ApplicationMessage) {
	if o.Publisher == nil {
		return
	}
	if err := o.Publisher.Publish(routingKey, msg); err != nil {
		o.Logger.WithContext(ctx).Warn("publish application message failed",
			zap.String("routing_key", routingKey),
			zap.String("application_id", msg.ApplicationID),
			zap.Error(err),
		)
	}
}

// verifyAdmin re-reads the admin's active flag; the session only carries an
// identifier.
func verifyAdmin(ctx context.Context, admins repository.AdminRepository, actor auth.Identity) error {
	if !actor.IsAdmin() || actor.ID == "" {
		return ErrUnauthenticated
	}
	if _, err := admins.FindActiveByID(ctx, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnauthenticated
		}
		return classify(err)
	}
	return nil
}
