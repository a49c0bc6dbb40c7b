package response

import "github.com/nekogravitycat/servicehub-backend/internal/pkg/request"

// PageResponse is the standard wrapper for list endpoints.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage converts one page of domain values with convert. Items is never
// null in the JSON output.
func NewPage[S, T any](src []S, convert func(S) T, params request.ListParams, total int) PageResponse[T] {
	items := make([]T, 0, len(src))
	for _, s := range src {
		items = append(items, convert(s))
	}

	pages := 0
	if params.PageSize > 0 {
		pages = (total + params.PageSize - 1) / params.PageSize
	}

	return PageResponse[T]{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}
