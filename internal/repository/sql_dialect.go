package repository

import (
	"strings"

	"gorm.io/gorm"
)

// dbDialectName returns the dialect name, sqlite by default
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// likeOperator is case insensitive on both dialects
func likeOperator(db *gorm.DB) string {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// isUniqueViolation matches duplicate key errors from sqlite and postgres
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

// IsUniqueViolation is exported for services that translate duplicates into conflicts
func IsUniqueViolation(err error) bool {
	return isUniqueViolation(err)
}
