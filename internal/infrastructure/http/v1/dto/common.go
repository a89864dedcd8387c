// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// --- Error Response ---

// ErrorResponse mirrors the body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Cursor pagination ---

// CursorRequest pages through a sort key ordered collection.
type CursorRequest struct {
	Limit int    `form:"limit" binding:"omitempty,min=1,max=200"`
	After string `form:"after"`
	Sort  string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

// Defaults sets default pagination values.
func (p *CursorRequest) Defaults() {
	if p.Limit == 0 {
		p.Limit = 50
	}
	if p.Sort == "" {
		p.Sort = "asc"
	}
}

// CursorResponse wraps one page. NextCursor is set when more items may follow.
type CursorResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}
