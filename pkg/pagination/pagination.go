package pagination

// MaxPage is the highest page a list endpoint accepts. It keeps Offset
// far from integer overflow for every allowed limit.
const MaxPage = 100000

// Params is the page/limit pair accepted by list endpoints.
type Params struct {
	Page  int `form:"page" default:"1" validate:"gte=1,lte=100000"`
	Limit int `form:"limit" default:"10" validate:"gte=1,lte=100"`
}

// Meta is the pagination block returned next to list data.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Clamp applies the default limit when unset and caps it at max.
func (p Params) Clamp(def, max int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

// Offset returns the number of rows to skip.
// Page is capped at MaxPage so the result is never negative.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * p.Limit
}

// NewMeta builds the pagination block for total matching rows.
func NewMeta(total int, p Params) Meta {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
