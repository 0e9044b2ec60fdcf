package repository

import (
	"context"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/gorm"
)

type GuestApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *models.GuestApplication) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.GuestApplication, error)
	FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.GuestApplication, error)
	CountApplied(ctx context.Context, tx *gorm.DB, eventID string) (int64, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error)
}

type guestApplicationRepository struct {
	db *gorm.DB
}

func NewGuestApplicationRepository(db *gorm.DB) GuestApplicationRepository {
	return &guestApplicationRepository{db: db}
}

func (r *guestApplicationRepository) Create(ctx context.Context, tx *gorm.DB, app *models.GuestApplication) error {
	return tx.WithContext(ctx).Create(app).Error
}

func (r *guestApplicationRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.GuestApplication, error) {
	var app models.GuestApplication
	if err := tx.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *guestApplicationRepository) FindByEventID(ctx context.Context, tx *gorm.DB, eventID string) ([]models.GuestApplication, error) {
	var apps []models.GuestApplication
	err := tx.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("applied_at DESC, id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *guestApplicationRepository) CountApplied(ctx context.Context, tx *gorm.DB, eventID string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.GuestApplication{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusApplied).
		Count(&count).Error
	return count, err
}

func (r *guestApplicationRepository) MarkCancelled(ctx context.Context, tx *gorm.DB, id string, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.GuestApplication{}).
		Where("id = ? AND status = ?", id, models.StatusApplied).
		Updates(map[string]any{"status": models.StatusCancelled, "cancelled_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
