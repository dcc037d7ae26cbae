package rules

import (
	"strings"
	"unicode"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// Facts are the attributes of an offer a clause can inspect.
type Facts struct {
	Model       Model
	Name        string
	Description string
	Price       float64
	VenueID     uint
	OffererID   uint
	Category    string
	Subcategory string
	Formats     []string
}

// Matches evaluates the clause against an offer. Clauses on another offer model
// never match; venue and offerer clauses apply to every model.
func (c Clause) Matches(f Facts) bool {
	switch c.Model {
	case ModelVenue:
		return matchSet(c.Operator, c.Comparated, int(f.VenueID))
	case ModelOfferer:
		return matchSet(c.Operator, c.Comparated, int(f.OffererID))
	case ModelCollectiveStock:
		if f.Model != ModelCollectiveOffer {
			return false
		}
	default:
		if c.Model != f.Model {
			return false
		}
	}

	switch c.Attribute {
	case AttributeMaxPrice, AttributePrice:
		threshold, ok := c.Comparated.(float64)
		return ok && compare(c.Operator, f.Price, threshold)
	case AttributeName:
		return matchText(c.Operator, c.Comparated, f.Name)
	case AttributeDescription:
		return matchText(c.Operator, c.Comparated, f.Description)
	case AttributeCategory:
		return matchSet(c.Operator, c.Comparated, f.Category)
	case AttributeSubcategory:
		return matchSet(c.Operator, c.Comparated, f.Subcategory)
	case AttributeFormats:
		return matchIntersection(c.Operator, c.Comparated, f.Formats)
	default:
		return false
	}
}

// MatchesAll reports whether every clause matches. A rule without clauses matches nothing.
func MatchesAll(clauses []Clause, f Facts) bool {
	if len(clauses) == 0 {
		return false
	}
	for _, clause := range clauses {
		if !clause.Matches(f) {
			return false
		}
	}
	return true
}

func compare(op Operator, value, threshold float64) bool {
	switch op {
	case OperatorGreaterThan:
		return value > threshold
	case OperatorGreaterThanOrEqualTo:
		return value >= threshold
	case OperatorLessThan:
		return value < threshold
	case OperatorLessThanOrEqualTo:
		return value <= threshold
	default:
		return false
	}
}

func matchText(op Operator, comparated interface{}, text string) bool {
	keywords, ok := comparated.([]string)
	if !ok {
		return false
	}
	normalized := search.Normalize(text)
	padded := " " + strings.Join(strings.FieldsFunc(normalized, isSeparator), " ") + " "
	for _, keyword := range keywords {
		folded := search.Normalize(keyword)
		if folded == "" {
			continue
		}
		switch op {
		case OperatorContains:
			if strings.Contains(normalized, folded) {
				return true
			}
		case OperatorContainsExactly:
			words := strings.Join(strings.FieldsFunc(folded, isSeparator), " ")
			if strings.Contains(padded, " "+words+" ") {
				return true
			}
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func matchSet(op Operator, comparated interface{}, value interface{}) bool {
	found := contains(comparated, value)
	switch op {
	case OperatorIn:
		return found
	case OperatorNotIn:
		return !found
	default:
		return false
	}
}

func matchIntersection(op Operator, comparated interface{}, values []string) bool {
	intersects := false
	for _, value := range values {
		if contains(comparated, value) {
			intersects = true
			break
		}
	}
	switch op {
	case OperatorIntersects:
		return intersects
	case OperatorNotIntersects:
		return !intersects
	default:
		return false
	}
}

func contains(comparated interface{}, value interface{}) bool {
	switch list := comparated.(type) {
	case []int:
		target, ok := value.(int)
		if !ok {
			return false
		}
		for _, item := range list {
			if item == target {
				return true
			}
		}
	case []string:
		target, ok := value.(string)
		if !ok {
			return false
		}
		for _, item := range list {
			if item == target {
				return true
			}
		}
	}
	return false
}
