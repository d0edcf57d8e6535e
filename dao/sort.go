package dao

import (
	"strings"

	"github.com/goliatone/go-generic-dao/mapping"
)

// SortCriterion is one ordering rule: a property and a direction. The
// property is either the Go field name or the column name.
type SortCriterion struct {
	property  string
	ascending bool
}

// NewSortCriterion creates a SortCriterion.
func NewSortCriterion(property string, ascending bool) SortCriterion {
	return SortCriterion{property: property, ascending: ascending}
}

// Asc orders by property, ascending.
func Asc(property string) SortCriterion {
	return NewSortCriterion(property, true)
}

// Desc orders by property, descending.
func Desc(property string) SortCriterion {
	return NewSortCriterion(property, false)
}

// Property returns the property the criterion sorts on.
func (c SortCriterion) Property() string {
	return c.property
}

// Ascending reports the sort direction.
func (c SortCriterion) Ascending() bool {
	return c.ascending
}

func (c SortCriterion) String() string {
	if c.ascending {
		return c.property + " ASC"
	}
	return c.property + " DESC"
}

// orderClauses translates criteria into ORDER BY fragments with quoted
// column names. It returns the first property that is not mapped, if any.
func orderClauses(meta *mapping.EntityMetadata, criteria []SortCriterion) ([]string, string, bool) {
	clauses := make([]string, 0, len(criteria))
	for _, c := range criteria {
		f, ok := meta.Field(c.property)
		if !ok {
			return nil, c.property, false
		}
		direction := " ASC"
		if !c.ascending {
			direction = " DESC"
		}
		clauses = append(clauses, string(f.SQLName)+direction)
	}
	return clauses, "", true
}

func orderBy(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(clauses, ", ")
}
