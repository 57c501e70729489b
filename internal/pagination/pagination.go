package pagination

import "strconv"

const (
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

type Params struct {
	Page  int64
	Limit int64
}

// Parse reads page and limit query values, falling back to page 1 and
// the default limit for anything missing or malformed.
func Parse(page, limit string) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if v, err := strconv.ParseInt(page, 10, 64); err == nil && v > 1 {
		p.Page = v
	}
	if v, err := strconv.ParseInt(limit, 10, 64); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	return p
}

func (p Params) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

type Meta struct {
	CurrentPage int64  `json:"currentPage"`
	TotalPages  int64  `json:"totalPages"`
	TotalCount  int64  `json:"totalCount"`
	Limit       int64  `json:"limit"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
	NextPage    *int64 `json:"nextPage"`
	PrevPage    *int64 `json:"prevPage"`
}

func NewMeta(p Params, total int64) Meta {
	totalPages := (total + p.Limit - 1) / p.Limit
	meta := Meta{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		Limit:       p.Limit,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
	if meta.HasNextPage {
		next := p.Page + 1
		meta.NextPage = &next
	}
	if meta.HasPrevPage {
		prev := p.Page - 1
		meta.PrevPage = &prev
	}
	return meta
}
