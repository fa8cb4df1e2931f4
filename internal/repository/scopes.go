package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// paginate limits a query to one page; a non-positive size returns every row
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}

// containsText matches column against term, case-insensitively on postgres
func containsText(column, term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		return db.Where(column+" "+likeOperator(db)+" ?", "%"+term+"%")
	}
}

// equalsIfSet filters on column unless value is the zero value
func equalsIfSet[T comparable](column string, value T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		var zero T
		if value == zero {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

// createdBetween bounds created_at by either end when set
func createdBetween(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("created_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("created_at <= ?", *to)
		}
		return db
	}
}

// takeOne returns the first row of query or nil when nothing matches
func takeOne[T any](query *gorm.DB) (*T, error) {
	var row T
	err := query.Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
