package repository

import (
	"context"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/gorm"
)

type MemberApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *models.MemberApplication) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.MemberApplication, error)
	FindAppliedByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) (*models.MemberApplication, error)
	// FindByEventID returns the event's applications with their members,
	// newest first.
	FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.MemberApplication, error)
	FindByUserID(ctx context.Context, userID string) ([]models.MemberApplication, error)
	CountApplied(ctx context.Context, tx *gorm.DB, eventID string) (int64, error)
	// MarkCancelled moves an applied row to cancelled. It reports false when
	// the row was not in applied state.
	MarkCancelled(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error)
}

type memberApplicationRepository struct {
	db *gorm.DB
}

func NewMemberApplicationRepository(db *gorm.DB) MemberApplicationRepository {
	return &memberApplicationRepository{db: db}
}

func (r *memberApplicationRepository) Create(ctx context.Context, tx *gorm.DB, app *models.MemberApplication) error {
	return tx.WithContext(ctx).Omit("Member", "Event").Create(app).Error
}

func (r *memberApplicationRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.MemberApplication, error) {
	var app models.MemberApplication
	if err := tx.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *memberApplicationRepository) FindAppliedByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) (*models.MemberApplication, error) {
	var app models.MemberApplication
	err := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, models.StatusApplied).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *memberApplicationRepository) FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.MemberApplication, error) {
	var apps []models.MemberApplication
	err := tx.WithContext(ctx).
		Preload("Member").
		Where("event_id = ?", eventID).
		Order("applied_at DESC, id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *memberApplicationRepository) FindByUserID(ctx context.Context, userID string) ([]models.MemberApplication, error) {
	var apps []models.MemberApplication
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("applied_at DESC, id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *memberApplicationRepository) CountApplied(ctx context.Context, tx *gorm.DB, eventID string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.MemberApplication{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusApplied).
		Count(&count).Error
	return count, err
}

func (r *memberApplicationRepository) MarkCancelled(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.MemberApplication{}).
		Where("id = ? AND status = ?", id, models.StatusApplied).
		Updates(map[string]any{"status": models.StatusCancelled, "cancelled_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
