package pagination

// Pagination is the page/limit request contract used by list endpoints.
type Pagination struct {
	Page  int `form:"page,default=1" validate:"gte=1"`
	Limit int `form:"limit,default=20" validate:"gte=1,lte=100"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps page and limit into their legal ranges.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// PageInfo describes the result window of a list response.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
	HasMore    bool  `json:"has_more"`
}

// BuildPageInfo derives PageInfo from a normalized request and total count.
func BuildPageInfo(p Pagination, totalCount int64) PageInfo {
	n := p.Normalize()
	return PageInfo{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalCount: totalCount,
		HasMore:    int64(n.Page*n.Limit) < totalCount,
	}
}
