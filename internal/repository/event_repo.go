package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error)
	Upsert(ctx context.Context, event *models.Event) error
	// MarkRemoved closes the event to new applications. Unknown ids are a no-op.
	MarkRemoved(ctx context.Context, id string, at time.Time) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate acquires a row-level lock on the event within the given
// transaction. Every seat-consuming operation takes this lock first, so
// applications for one event are serialized.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	if err := forUpdate(tx.WithContext(ctx)).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Upsert(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "event_date", "capacity", "cancel_deadline", "allow_guest", "updated_at"}),
	}).Create(event).Error
}

func (r *eventRepository) MarkRemoved(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND removed_at IS NULL", id).
		Updates(map[string]any{"removed_at": at, "updated_at": at}).Error
}

// forUpdate adds FOR UPDATE. SQLite has no row locks and already allows a
// single writer, so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// SnapshotTx returns options for a read-only transaction whose statements all
// see the same committed state. SQLite transactions already do, so it
// returns nil there.
func SnapshotTx(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}
