package search

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// TextSpec describes how a free-text term is matched for one entity.
type TextSpec struct {
	// MinLength guards non-numeric terms: shorter terms match nothing.
	MinLength int
	// IDColumn receives an exact match when the term is numeric.
	IDColumn string
	// IdentifierColumn receives a prefix match for numeric terms of at most IdentifierLength digits.
	IdentifierColumn string
	IdentifierLength int
	// SearchColumns hold accent-folded text and receive substring matches.
	SearchColumns []string
	// EmailColumn receives an exact match when the term looks like an email.
	EmailColumn string
}

// Builder accumulates ANDed predicates for a list query.
type Builder struct {
	scopes []func(*gorm.DB) *gorm.DB
	empty  bool
}

// NewBuilder returns a builder matching everything.
func NewBuilder() *Builder {
	return &Builder{}
}

// Empty reports whether a guard decided the result set is empty; callers skip the query.
func (b *Builder) Empty() bool {
	return b.empty
}

// Apply attaches every predicate to the query.
func (b *Builder) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(b.scopes...)
}

// Where adds a raw predicate.
func (b *Builder) Where(query string, args ...interface{}) *Builder {
	b.scopes = append(b.scopes, func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
	return b
}

// Text adds the free-text predicate for ts: id and identifier-prefix matches for
// numeric terms, folded substring and exact email matches otherwise.
func (b *Builder) Text(raw string, ts TextSpec) *Builder {
	term := strings.TrimSpace(raw)
	if term == "" {
		return b
	}

	var clauses []string
	var args []interface{}

	if IsNumeric(term) {
		if ts.IDColumn != "" {
			if id, err := strconv.ParseUint(term, 10, 32); err == nil {
				clauses = append(clauses, ts.IDColumn+" = ?")
				args = append(args, id)
			}
		}
		if ts.IdentifierColumn != "" && len(term) >= ts.MinLength && len(term) <= ts.IdentifierLength {
			clauses = append(clauses, ts.IdentifierColumn+` LIKE ? ESCAPE '\'`)
			args = append(args, term+"%")
		}
		if len(term) >= ts.MinLength {
			for _, column := range ts.SearchColumns {
				clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
				args = append(args, "%"+term+"%")
			}
		}
	} else {
		normalized := Normalize(term)
		if utf8.RuneCountInString(normalized) < ts.MinLength {
			b.empty = true
			return b
		}
		if ts.EmailColumn != "" && strings.Contains(term, "@") {
			clauses = append(clauses, ts.EmailColumn+" = ?")
			args = append(args, strings.ToLower(term))
		} else {
			pattern := "%" + EscapeLike(normalized) + "%"
			for _, column := range ts.SearchColumns {
				clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
				args = append(args, pattern)
			}
		}
	}

	if len(clauses) == 0 {
		b.empty = true
		return b
	}

	return b.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// InStrings restricts column to values; an empty slice adds nothing.
func (b *Builder) InStrings(column string, values []string) *Builder {
	if len(values) == 0 {
		return b
	}
	return b.Where(column+" IN ?", values)
}

// InIDs restricts column to ids; an empty slice adds nothing.
func (b *Builder) InIDs(column string, ids []uint) *Builder {
	if len(ids) == 0 {
		return b
	}
	return b.Where(column+" IN ?", ids)
}

// Equals adds an equality predicate unless value is empty.
func (b *Builder) Equals(column, value string) *Builder {
	if strings.TrimSpace(value) == "" {
		return b
	}
	return b.Where(column+" = ?", value)
}

// Bool adds an equality predicate on a tri-state flag.
func (b *Builder) Bool(column string, value *bool) *Builder {
	if value == nil {
		return b
	}
	return b.Where(column+" = ?", *value)
}

// DateRange keeps rows whose column falls between from and the end of the to day.
func (b *Builder) DateRange(column string, from, to *time.Time) *Builder {
	if from != nil {
		b.Where(column+" >= ?", *from)
	}
	if to != nil {
		b.Where(column+" < ?", to.AddDate(0, 0, 1))
	}
	return b
}
