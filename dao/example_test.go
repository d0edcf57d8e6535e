package dao

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type exampleFilter struct {
	Name     string
	Count    int
	Active   bool
	Archived *bool
	Score    *float64
	Label    *string
	Tags     []string
	Created  time.Time
}

func TestExampleValue(t *testing.T) {
	no := false
	zero := 0.0
	empty := ""
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		field  string
		filter exampleFilter
		want   any
		ok     bool
	}{
		{name: "zero string", field: "Name", ok: false},
		{name: "string", field: "Name", filter: exampleFilter{Name: "a"}, want: "a", ok: true},
		{name: "zero int", field: "Count", ok: false},
		{name: "plain false", field: "Active", ok: false},
		{name: "plain true", field: "Active", filter: exampleFilter{Active: true}, want: true, ok: true},
		{name: "nil pointer", field: "Archived", ok: false},
		{name: "explicit false", field: "Archived", filter: exampleFilter{Archived: &no}, want: false, ok: true},
		{name: "explicit numeric zero", field: "Score", filter: exampleFilter{Score: &zero}, ok: false},
		{name: "explicit empty string", field: "Label", filter: exampleFilter{Label: &empty}, want: "", ok: true},
		{name: "slice", field: "Tags", filter: exampleFilter{Tags: []string{"a"}}, ok: false},
		{name: "time", field: "Created", filter: exampleFilter{Created: created}, want: created, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := reflect.ValueOf(tt.filter).FieldByName(tt.field)
			got, ok := exampleValue(fv)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
