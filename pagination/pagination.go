// Package pagination provides page/size request normalization and a generic
// paginated response wrapper for listing operations.
package pagination

const (
	defaultPageSize = 20
	defaultMaxSize  = 100
)

// Request carries 1-based page number and page size for a listing call.
type Request struct {
	PageNumber int `query:"page_number" json:"page_number"`
	PageSize   int `query:"page_size"   json:"page_size"`
}

// Normalize applies defaults and constraints.
func (r *Request) Normalize(opts ...Option) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if r.PageNumber <= 0 {
		r.PageNumber = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > o.MaxPageSize {
		r.PageSize = o.MaxPageSize
	}
}

// Offset returns the row offset for the requested page.
func (r *Request) Offset() int {
	return (r.PageNumber - 1) * r.PageSize
}

// Limit returns the row limit for the requested page.
func (r *Request) Limit() int {
	return r.PageSize
}

// Response wraps one page of items together with paging metadata.
type Response[T any] struct {
	PageNumber  int   `json:"page_number"`
	PageSize    int   `json:"page_size"`
	PageCount   int   `json:"page_count"`
	TotalCount  int64 `json:"total_count"`
	PageContent []T   `json:"page_content"`
}

// NewResponse creates a paginated response from items and total count.
func NewResponse[T any](items []T, totalCount int64, req Request) Response[T] {
	pageCount := int(totalCount) / req.PageSize
	if int(totalCount)%req.PageSize > 0 {
		pageCount++
	}

	return Response[T]{
		PageNumber:  req.PageNumber,
		PageSize:    req.PageSize,
		PageCount:   pageCount,
		TotalCount:  totalCount,
		PageContent: items,
	}
}
