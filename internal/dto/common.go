package dto

import (
	"github.com/noah-isme/backoffice-api/internal/format"
	"github.com/noah-isme/backoffice-api/internal/pagination"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta copies the metadata of a computed page.
func NewPaginationMeta[T any](page pagination.Page[T]) PaginationMeta {
	return PaginationMeta{
		Page:       page.Page,
		PageSize:   page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
}

// ListRequest carries the raw paging query parameters.
type ListRequest struct {
	Page    int
	PerPage int
}

// BadgeResponse is a status rendered as a coloured label.
type BadgeResponse struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

// NewBadgeResponse wraps a formatted badge with its raw code.
func NewBadgeResponse(code string, badge format.Badge) BadgeResponse {
	return BadgeResponse{Code: code, Label: badge.Label, Variant: badge.Variant}
}

// CommentRequest is the body of status changes that only carry a comment.
type CommentRequest struct {
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

// RequiredCommentRequest is a CommentRequest where the comment is mandatory.
type RequiredCommentRequest struct {
	Comment string `json:"comment" form:"comment" validate:"required,max=2000"`
}

// AutocompleteItem is one suggestion of an autocomplete field.
type AutocompleteItem struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}
