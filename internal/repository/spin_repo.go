package repository

import (
	"context"

	"starwheel/internal/model"

	"gorm.io/gorm"
)

// SpinRepository appends to and reads the spin history. Append only, like
// the ledger.
type SpinRepository struct {
	db *gorm.DB
}

func NewSpinRepository(db *gorm.DB) *SpinRepository {
	return &SpinRepository{db: db}
}

func (r *SpinRepository) Create(ctx context.Context, tx *gorm.DB, record *model.SpinRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(record).Error
}

func (r *SpinRepository) GetBySpinNo(ctx context.Context, spinNo string) (*model.SpinRecord, error) {
	var record model.SpinRecord
	err := r.db.WithContext(ctx).Where("spin_no = ?", spinNo).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *SpinRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.SpinRecord, int64, error) {
	var records []*model.SpinRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&model.SpinRecord{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error

	return records, total, err
}
