package option

import (
	"strings"

	"gorm.io/gorm"
)

// Option applies a query modifier to a gorm statement.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type sortBy struct {
	clause string
}

func (s sortBy) Apply(stmt *gorm.DB) *gorm.DB {
	if s.clause == "" {
		return stmt
	}
	return stmt.Order(s.clause)
}

// WithSortBy builds an ORDER BY option from user-supplied sort parameters,
// restricted to the allowed column set. Falls back to the given default
// clause when the request is empty or not allowed.
func WithSortBy(field, direction, fallback string, allowed map[string]bool) Option {
	field = strings.TrimSpace(field)
	if field == "" || !allowed[field] {
		return sortBy{clause: fallback}
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != "asc" && direction != "desc" {
		direction = "asc"
	}
	return sortBy{clause: field + " " + direction}
}
