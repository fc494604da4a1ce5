package domain

import "errors"

var (
	ErrNotFound        = errors.New("not_found")
	ErrDuplicatePeriod = errors.New("duplicate_period")
	ErrNotEditable     = errors.New("not_editable")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidStore    = errors.New("invalid_store")
	ErrInvalidRevenue  = errors.New("invalid_revenue")
	ErrInvalidFormat   = errors.New("invalid_format")
)
