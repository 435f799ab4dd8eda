package shared

// Filter carries common listing options for read queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]interface{}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// Limit returns the page size, defaulting to 50
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 50
	}
	return f.PageSize
}
