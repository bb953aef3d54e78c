package repository

import (
	"context"

	"starwheel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// InsertEdge writes the edge with ON CONFLICT(referred_id) DO NOTHING and
// reports whether a row was actually inserted. The database is the final
// arbiter of at-most-once here: a concurrent or replayed activation that
// loses the race sees inserted == false and must credit nothing.
func (r *ReferralRepository) InsertEdge(ctx context.Context, tx *gorm.DB, edge *model.ReferralEdge) (bool, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referred_id"}},
			DoNothing: true,
		}).
		Create(edge)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasEdgeForReferred reports whether the referred user already has any
// edge, regardless of referrer.
func (r *ReferralRepository) HasEdgeForReferred(ctx context.Context, referredID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ReferralEdge{}).
		Where("referred_id = ?", referredID).
		Count(&count).Error
	return count > 0, err
}

// CountByReferrer counts edges from source rows. The activation flow uses
// this to recompute the denormalized counter instead of incrementing it.
func (r *ReferralRepository) CountByReferrer(ctx context.Context, tx *gorm.DB, referrerID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.ReferralEdge{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, err
}

func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID int64, page, pageSize int) ([]*model.ReferralEdge, int64, error) {
	var edges []*model.ReferralEdge
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ReferralEdge{}).Where("referrer_id = ?", referrerID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&edges).Error

	return edges, total, err
}
