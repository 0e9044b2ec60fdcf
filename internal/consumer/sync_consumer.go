package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errBadPayload = errors.New("bad payload")

const storeTimeout = 5 * time.Second

// SyncConsumer mirrors events, members and admins from the admin console
// into the local tables the application workflow reads.
type SyncConsumer struct {
	events  repository.EventRepository
	members repository.MemberRepository
	admins  repository.AdminRepository
	log     *logger.Logger
}

func NewSyncConsumer(repos repository.Repositories, log *logger.Logger) *SyncConsumer {
	return &SyncConsumer{
		events:  repos.Events,
		members: repos.Members,
		admins:  repos.Admins,
		log:     log.Named("sync_consumer"),
	}
}

// Start handles deliveries until msgs is closed.
func (sc *SyncConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			sc.handleMessage(msg)
		}
		sc.log.Info("channel closed, stopping consumer")
	}()
}

func (sc *SyncConsumer) handleMessage(msg amqp.Delivery) {
	log := sc.log.With(zap.String("routing_key", msg.RoutingKey))

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	id, err := sc.apply(ctx, msg.RoutingKey, msg.Body)
	switch {
	case errors.Is(err, errBadPayload):
		log.Warn("dropping message", zap.Error(err))
		_ = msg.Nack(false, false)
	case err != nil:
		log.Error("sync failed, requeueing", zap.String("id", id), zap.Error(err))
		_ = msg.Nack(false, true)
	default:
		log.Info("synced", zap.String("id", id))
		_ = msg.Ack(false)
	}
}

func (sc *SyncConsumer) apply(ctx context.Context, routingKey string, body []byte) (string, error) {
	entity, action, _ := strings.Cut(routingKey, ".")
	if action == "deleted" {
		return sc.remove(ctx, entity, routingKey, body)
	}

	switch entity {
	case "event":
		var p eventPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return p.ID, sc.events.Upsert(ctx, p.model())
	case "member":
		var p memberPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return p.ID, sc.members.Upsert(ctx, p.model())
	case "admin":
		var p adminPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return p.ID, sc.admins.Upsert(ctx, p.model())
	default:
		return "", fmt.Errorf("%w: unknown routing key %q", errBadPayload, routingKey)
	}
}

// remove handles *.deleted. Only the id is read; rows are kept because
// applications reference them.
func (sc *SyncConsumer) remove(ctx context.Context, entity, routingKey string, body []byte) (string, error) {
	var ref refPayload
	if err := decode(body, &ref); err != nil {
		return "", err
	}
	now := time.Now().UTC()

	switch entity {
	case "event":
		return ref.ID, sc.events.MarkRemoved(ctx, ref.ID, now)
	case "member":
		return ref.ID, sc.members.Deactivate(ctx, ref.ID, now)
	case "admin":
		return ref.ID, sc.admins.Deactivate(ctx, ref.ID, now)
	default:
		return "", fmt.Errorf("%w: unknown routing key %q", errBadPayload, routingKey)
	}
}

type identified interface {
	key() string
}

func decode(body []byte, v identified) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if v.key() == "" {
		return fmt.Errorf("%w: missing id", errBadPayload)
	}
	return nil
}
