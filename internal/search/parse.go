package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the format of date filters submitted by list forms.
const DateLayout = "2006-01-02"

// FieldError reports a malformed filter value; the search is not executed.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SplitValues flattens repeated and comma-separated parameters into trimmed values.
func SplitValues(raws ...string) []string {
	values := make([]string, 0, len(raws))
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	}
	return values
}

// ParseIDList parses "1, 2,3" into identifiers.
func ParseIDList(field string, raws ...string) ([]uint, error) {
	values := SplitValues(raws...)
	ids := make([]uint, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil || id == 0 {
			return nil, &FieldError{Field: field, Message: fmt.Sprintf("identifiant invalide : %q", value)}
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ParseDate parses an optional YYYY-MM-DD value as a UTC midnight.
func ParseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, &FieldError{Field: field, Message: "date invalide, format attendu AAAA-MM-JJ"}
	}
	return &parsed, nil
}

// ParseDateRange parses both bounds and checks their order.
func ParseDateRange(fromField, from, toField, to string) (*time.Time, *time.Time, error) {
	start, err := ParseDate(fromField, from)
	if err != nil {
		return nil, nil, err
	}
	end, err := ParseDate(toField, to)
	if err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, &FieldError{Field: toField, Message: "la date de fin doit être postérieure à la date de début"}
	}
	return start, end, nil
}

// ParseBool parses an optional tri-state flag.
func ParseBool(field, raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &FieldError{Field: field, Message: "valeur booléenne invalide"}
	}
	return &value, nil
}
