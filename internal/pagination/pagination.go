// Package pagination bounds and orders list queries.
package pagination

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

// Limits holds the default and maximum page sizes.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits matches the list pages' historical sizes.
var DefaultLimits = Limits{Default: 20, Max: 100}

// Params is a normalised page request.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps a raw page request into valid bounds.
func (l Limits) Normalize(page, perPage int) Params {
	if l.Default <= 0 {
		l.Default = DefaultLimits.Default
	}
	if l.Max < l.Default {
		l.Max = l.Default
	}
	if page <= 0 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = l.Default
	case perPage > l.Max:
		perPage = l.Max
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset returns the number of rows skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Query configures ordering and eager loading of a paginated fetch.
type Query struct {
	// Order lists the primary sort keys; TieBreaker is always appended.
	Order []string
	// TieBreaker defaults to "id".
	TieBreaker string
	// Preload names associations fetched with the page, never per row.
	Preload []string
}

func (q Query) apply(db *gorm.DB) *gorm.DB {
	tieBreaker := q.TieBreaker
	if tieBreaker == "" {
		tieBreaker = "id"
	}
	hasTieBreaker := false
	for _, order := range q.Order {
		db = db.Order(order)
		column := strings.Fields(order)
		if len(column) > 0 && column[0] == tieBreaker {
			hasTieBreaker = true
		}
	}
	if !hasTieBreaker {
		db = db.Order(tieBreaker)
	}
	for _, association := range q.Preload {
		db = db.Preload(association)
	}
	return db
}

// Page is a bounded, ordered slice of results.
type Page[T any] struct {
	Items      []T
	Page       int
	PerPage    int
	TotalItems int64
	TotalPages int
}

// Empty builds a page without querying, used when a search guard matched nothing.
func Empty[T any](params Params) Page[T] {
	return Page[T]{Items: []T{}, Page: params.Page, PerPage: params.PerPage, TotalPages: 1}
}

// Paginate counts the filtered rows and fetches the requested page.
// A page past the end yields no items and accurate totals.
func Paginate[T any](db *gorm.DB, params Params, q Query) (Page[T], error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{
		Items:      []T{},
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalItems: total,
		TotalPages: totalPages(total, params.PerPage),
	}
	if total == 0 || int64(params.Offset()) >= total {
		return page, nil
	}

	var items []T
	if err := q.apply(db.Session(&gorm.Session{})).Offset(params.Offset()).Limit(params.PerPage).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}
	page.Items = items
	return page, nil
}

func totalPages(total int64, perPage int) int {
	if perPage <= 0 || total == 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Bounded is a capped result: at most Limit items and whether more exist.
type Bounded[T any] struct {
	Items   []T
	Limit   int
	HasMore bool
}

// FetchBounded fetches up to limit rows, probing one extra row to detect truncation.
func FetchBounded[T any](db *gorm.DB, limit int, q Query) (Bounded[T], error) {
	if limit <= 0 {
		limit = DefaultLimits.Default
	}
	var items []T
	if err := q.apply(db).Limit(limit + 1).Find(&items).Error; err != nil {
		return Bounded[T]{}, err
	}
	result := Bounded[T]{Items: items, Limit: limit}
	if result.Items == nil {
		result.Items = []T{}
	}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
	}
	return result, nil
}
