package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/backoffice-api/internal/search"
)

// Input is the submitted form of one sub-rule. Only the field named by the
// type's definition is read.
type Input struct {
	ID            *uint       `json:"id"`
	Type          SubRuleType `json:"sub_rule_type" validate:"required"`
	Operator      Operator    `json:"operator" validate:"required"`
	DecimalField  *float64    `json:"decimal_field"`
	ListField     string      `json:"list_field"`
	OffererIDs    []uint      `json:"offerer"`
	VenueIDs      []uint      `json:"venue"`
	Categories    []string    `json:"category_list"`
	Subcategories []string    `json:"subcategories"`
	Formats       []string    `json:"formats"`
}

// ValidationError is a localised, field-level compilation failure.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sous-règle %d, %s : %s", e.Index+1, e.Field, e.Message)
}

// Clause is a normalised comparison ready to be stored. Comparated is a float64,
// a sorted []string or a sorted []int.
type Clause struct {
	ID         uint
	Model      Model
	Attribute  Attribute
	Operator   Operator
	Comparated interface{}
}

// SameShape reports whether both clauses compare the same attribute the same way.
func (c Clause) SameShape(other Clause) bool {
	return c.Model == other.Model && c.Attribute == other.Attribute && c.Operator == other.Operator
}

// Payload is the stored JSON document of the comparated value.
func (c Clause) Payload() map[string]interface{} {
	return map[string]interface{}{"comparated": c.Comparated}
}

// MarshalComparated encodes the stored JSON document.
func (c Clause) MarshalComparated() ([]byte, error) {
	return json.Marshal(c.Payload())
}

// Snapshot is the audit representation of a clause.
func (c Clause) Snapshot() map[string]interface{} {
	snapshot := map[string]interface{}{
		"model":      string(c.Model),
		"attribute":  string(c.Attribute),
		"operator":   string(c.Operator),
		"comparated": c.Comparated,
	}
	if c.ID != 0 {
		snapshot["id"] = c.ID
	}
	return snapshot
}

// Compile validates one submitted sub-rule and normalises its value.
func Compile(index int, in Input) (Clause, error) {
	def, ok := Lookup(in.Type)
	if !ok {
		return Clause{}, &ValidationError{Index: index, Field: "sub_rule_type", Message: "type de sous-règle inconnu"}
	}
	if !def.Allows(in.Operator) {
		return Clause{}, &ValidationError{
			Index:   index,
			Field:   "operator",
			Message: fmt.Sprintf("l'opérateur %s n'est pas autorisé pour ce type de sous-règle", in.Operator),
		}
	}

	clause := Clause{Model: def.Model, Attribute: def.Attribute, Operator: in.Operator}
	if in.ID != nil {
		clause.ID = *in.ID
	}

	required := &ValidationError{Index: index, Field: string(def.Field), Message: "ce champ est obligatoire"}

	switch def.Field {
	case FieldDecimal:
		if in.DecimalField == nil {
			return Clause{}, required
		}
		value := *in.DecimalField
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return Clause{}, &ValidationError{Index: index, Field: string(def.Field), Message: "le montant doit être positif"}
		}
		clause.Comparated = value
	case FieldList:
		keywords := NormalizeKeywords(in.ListField)
		if len(keywords) == 0 {
			return Clause{}, required
		}
		clause.Comparated = keywords
	case FieldOfferers:
		ids := sortedIDs(in.OffererIDs)
		if len(ids) == 0 {
			return Clause{}, required
		}
		clause.Comparated = ids
	case FieldVenues:
		ids := sortedIDs(in.VenueIDs)
		if len(ids) == 0 {
			return Clause{}, required
		}
		clause.Comparated = ids
	case FieldCategories, FieldSubcategories, FieldFormats:
		values := sortedStrings(selectStrings(def.Field, in))
		if len(values) == 0 {
			return Clause{}, required
		}
		clause.Comparated = values
	}

	return clause, nil
}

// CompileAll compiles every sub-rule; the first failure aborts.
func CompileAll(inputs []Input) ([]Clause, error) {
	clauses := make([]Clause, 0, len(inputs))
	for i, in := range inputs {
		clause, err := Compile(i, in)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// Decode rebuilds a clause from its stored columns.
func Decode(id uint, model, attribute, operator string, raw []byte) (Clause, error) {
	clause := Clause{ID: id, Model: Model(model), Attribute: Attribute(attribute), Operator: Operator(operator)}

	var payload struct {
		Comparated interface{} `json:"comparated"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Clause{}, fmt.Errorf("decode sub-rule %d: %w", id, err)
	}

	switch value := payload.Comparated.(type) {
	case float64:
		clause.Comparated = value
	case []interface{}:
		ints := make([]int, 0, len(value))
		strs := make([]string, 0, len(value))
		for _, item := range value {
			switch typed := item.(type) {
			case float64:
				ints = append(ints, int(typed))
			case string:
				strs = append(strs, typed)
			}
		}
		if len(ints) > 0 && len(strs) == 0 {
			sort.Ints(ints)
			clause.Comparated = ints
		} else {
			clause.Comparated = strs
		}
	case string:
		clause.Comparated = []string{value}
	default:
		clause.Comparated = value
	}

	return clause, nil
}

// NormalizeKeywords splits a comma-separated list, trims and deduplicates entries and
// sorts them by their accent-folded form.
func NormalizeKeywords(raw string) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		keyword := strings.TrimSpace(part)
		if keyword == "" {
			continue
		}
		if _, dup := seen[keyword]; dup {
			continue
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		a, b := search.Normalize(keywords[i]), search.Normalize(keywords[j])
		if a != b {
			return a < b
		}
		return keywords[i] < keywords[j]
	})
	return keywords
}

func selectStrings(field ValueField, in Input) []string {
	switch field {
	case FieldCategories:
		return in.Categories
	case FieldSubcategories:
		return in.Subcategories
	default:
		return in.Formats
	}
}

func sortedIDs(ids []uint) []int {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, int(id))
	}
	sort.Ints(result)
	return result
}

func sortedStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	sort.Strings(result)
	return result
}
