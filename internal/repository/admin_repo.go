package repository

import (
	"context"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	FindActiveByID(ctx context.Context, id string) (*models.Admin, error)
	Upsert(ctx context.Context, admin *models.Admin) error
	Deactivate(ctx context.Context, id string, at time.Time) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) FindActiveByID(ctx context.Context, id string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) Upsert(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "is_active", "updated_at"}),
	}).Create(admin).Error
}

func (r *adminRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": at}).Error
}
