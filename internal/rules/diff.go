package rules

import (
	"fmt"
	"reflect"
)

// Modification records a value-only change of a stored clause.
type Modification struct {
	Before Clause
	After  Clause
}

// Snapshot is the audit representation: the clause shape plus added/removed values.
func (m Modification) Snapshot() map[string]interface{} {
	added, removed := valueDelta(m.Before.Comparated, m.After.Comparated)
	return map[string]interface{}{
		"id":        m.Before.ID,
		"model":     string(m.After.Model),
		"attribute": string(m.After.Attribute),
		"operator":  string(m.After.Operator),
		"comparated": map[string]interface{}{
			"added":   added,
			"removed": removed,
		},
	}
}

// ChangeSet is what an edit does to a rule's sub-rules.
type ChangeSet struct {
	// Created clauses get their ID assigned once persisted.
	Created  []Clause
	Modified []Modification
	Deleted  []Clause
}

// Empty reports whether the edit leaves sub-rules untouched.
func (cs ChangeSet) Empty() bool {
	return len(cs.Created) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// Diff compares the stored clauses of a rule with the submitted ones. A submitted
// clause referencing a stored ID with the same shape is modified in place when its
// value changed; a shape change deletes the stored clause and creates a new one.
func Diff(existing []Clause, submitted []Clause) ChangeSet {
	byID := make(map[uint]Clause, len(existing))
	for _, clause := range existing {
		byID[clause.ID] = clause
	}

	var cs ChangeSet
	kept := make(map[uint]struct{}, len(existing))
	for _, clause := range submitted {
		old, known := byID[clause.ID]
		if _, already := kept[clause.ID]; clause.ID == 0 || !known || already {
			clause.ID = 0
			cs.Created = append(cs.Created, clause)
			continue
		}
		kept[clause.ID] = struct{}{}

		if old.SameShape(clause) {
			if !sameValue(old.Comparated, clause.Comparated) {
				cs.Modified = append(cs.Modified, Modification{Before: old, After: clause})
			}
			continue
		}

		cs.Deleted = append(cs.Deleted, old)
		clause.ID = 0
		cs.Created = append(cs.Created, clause)
	}

	for _, clause := range existing {
		if _, ok := kept[clause.ID]; !ok {
			cs.Deleted = append(cs.Deleted, clause)
		}
	}

	return cs
}

// Removal is the change set of deleting every clause.
func Removal(existing []Clause) ChangeSet {
	return ChangeSet{Deleted: append([]Clause(nil), existing...)}
}

// Creation is the change set of a new rule.
func Creation(clauses []Clause) ChangeSet {
	return ChangeSet{Created: append([]Clause(nil), clauses...)}
}

// ExtraData is the audit payload aggregating every sub-rule change of one operation.
func (cs ChangeSet) ExtraData() map[string]interface{} {
	created := make([]interface{}, 0, len(cs.Created))
	for _, clause := range cs.Created {
		created = append(created, clause.Snapshot())
	}
	modified := make([]interface{}, 0, len(cs.Modified))
	for _, modification := range cs.Modified {
		modified = append(modified, modification.Snapshot())
	}
	deleted := make([]interface{}, 0, len(cs.Deleted))
	for _, clause := range cs.Deleted {
		deleted = append(deleted, clause.Snapshot())
	}

	return map[string]interface{}{
		"sub_rules_info": map[string]interface{}{
			"sub_rules_created":  created,
			"sub_rules_modified": modified,
			"sub_rules_deleted":  deleted,
		},
	}
}

func sameValue(a, b interface{}) bool {
	la, aIsList := listItems(a)
	lb, bIsList := listItems(b)
	if aIsList && bIsList {
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if fmt.Sprint(la[i]) != fmt.Sprint(lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// valueDelta returns set differences for lists, or the new and old values for scalars.
func valueDelta(before, after interface{}) (interface{}, interface{}) {
	old, oldIsList := listItems(before)
	current, newIsList := listItems(after)
	if !oldIsList || !newIsList {
		return after, before
	}
	return difference(current, old), difference(old, current)
}

func difference(from, minus []interface{}) []interface{} {
	excluded := make(map[string]struct{}, len(minus))
	for _, item := range minus {
		excluded[fmt.Sprint(item)] = struct{}{}
	}
	result := make([]interface{}, 0)
	for _, item := range from {
		if _, ok := excluded[fmt.Sprint(item)]; !ok {
			result = append(result, item)
		}
	}
	return result
}

func listItems(value interface{}) ([]interface{}, bool) {
	switch typed := value.(type) {
	case []string:
		items := make([]interface{}, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return items, true
	case []int:
		items := make([]interface{}, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return items, true
	case []interface{}:
		return typed, true
	default:
		return nil, false
	}
}
