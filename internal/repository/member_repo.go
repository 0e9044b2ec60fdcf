package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Member, error)
	// SearchNotApplied returns active members matching query on name, email
	// or company who hold no applied row for the event.
	SearchNotApplied(ctx context.Context, eventID, query string, limit int) ([]models.Member, error)
	Upsert(ctx context.Context, member *models.Member) error
	// Deactivate flips is_active off and leaves the profile untouched, so past
	// applications keep their names.
	Deactivate(ctx context.Context, id string, at time.Time) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.Member, error) {
	var member models.Member
	if err := tx.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) SearchNotApplied(ctx context.Context, eventID, query string, limit int) ([]models.Member, error) {
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`NOT EXISTS (
			SELECT 1 FROM event_applications a
			WHERE a.user_id = members.id AND a.event_id = ? AND a.status = ?
		)`, eventID, models.StatusApplied)

	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where(
			`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(company_name) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}

	var members []models.Member
	if err := q.Order("full_name ASC, id ASC").Limit(limit).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) Upsert(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "company_name", "is_active", "updated_at"}),
	}).Create(member).Error
}

func (r *memberRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": at}).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
