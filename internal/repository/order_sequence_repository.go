package repository

import (
	"time"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderSequenceRepository is the per-day order counter
type OrderSequenceRepository interface {
	Next(day string) (int64, error)
	Current(day string) (int64, error)
	AdvanceTo(day string, value int64) error
	WithTx(tx *gorm.DB) *GormOrderSequenceRepository
}

// GormOrderSequenceRepository GORM implementation
type GormOrderSequenceRepository struct {
	db *gorm.DB
}

// NewOrderSequenceRepository creates the sequence repository
func NewOrderSequenceRepository(db *gorm.DB) *GormOrderSequenceRepository {
	return &GormOrderSequenceRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderSequenceRepository) WithTx(tx *gorm.DB) *GormOrderSequenceRepository {
	if tx == nil {
		return r
	}
	return &GormOrderSequenceRepository{db: tx}
}

// Next increments the day counter with a single upsert and returns the new value.
// Call it inside a transaction so the read sees the row this call wrote.
func (r *GormOrderSequenceRepository) Next(day string) (int64, error) {
	now := time.Now()
	row := models.OrderSequence{Day: day, Value: 1, UpdatedAt: now}
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("order_sequences.value + 1"),
			"updated_at": now,
		}),
	}).Create(&row).Error; err != nil {
		return 0, err
	}
	return r.Current(day)
}

// Current returns the last issued value, 0 when none
func (r *GormOrderSequenceRepository) Current(day string) (int64, error) {
	var row models.OrderSequence
	err := r.db.Where("day = ?", day).Limit(1).Find(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Value, nil
}

// AdvanceTo moves the counter forward to value; it never moves it back
func (r *GormOrderSequenceRepository) AdvanceTo(day string, value int64) error {
	now := time.Now()
	row := models.OrderSequence{Day: day, Value: value, UpdatedAt: now}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("CASE WHEN order_sequences.value < ? THEN ? ELSE order_sequences.value END", value, value),
			"updated_at": now,
		}),
	}).Create(&row).Error
}
