package mapping

import (
	"reflect"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/uptrace/bun/schema"
)

// EntityMetadata describes how an entity type is persisted. It is resolved
// once per DAO and never mutated afterwards.
type EntityMetadata struct {
	// Type is the entity struct type (never a pointer type).
	Type reflect.Type
	// EntityName is the qualified Go type name, used in error messages and logs.
	EntityName string
	// TableName is the unquoted table name.
	TableName string
	// Table is the bun table metadata the entity was resolved from.
	Table *schema.Table
	// PrimaryKey is the single identifier field.
	PrimaryKey *schema.Field
}

func newEntityMetadata(typ reflect.Type, table *schema.Table) (*EntityMetadata, error) {
	name := typ.String()
	switch len(table.PKs) {
	case 0:
		return nil, daoerrors.NewConfigurationError(name, "type has no primary key field")
	case 1:
	default:
		return nil, daoerrors.NewConfigurationError(name, "composite primary keys are not supported")
	}

	return &EntityMetadata{
		Type:       typ,
		EntityName: name,
		TableName:  table.Name,
		Table:      table,
		PrimaryKey: table.PKs[0],
	}, nil
}

// PrimaryKeyPropertyName returns the Go field name of the identifier.
func (m *EntityMetadata) PrimaryKeyPropertyName() string {
	return m.PrimaryKey.GoName
}

// PrimaryKeyColumn returns the unquoted column name of the identifier.
func (m *EntityMetadata) PrimaryKeyColumn() string {
	return m.PrimaryKey.Name
}

// Column resolves a property, given either as Go field name or column name,
// to its column name.
func (m *EntityMetadata) Column(property string) (string, bool) {
	f, ok := m.Field(property)
	if !ok {
		return "", false
	}
	return f.Name, true
}

// Field resolves a property, given either as Go field name or column name.
func (m *EntityMetadata) Field(property string) (*schema.Field, bool) {
	for _, f := range m.Table.Fields {
		if f.Name == property || f.GoName == property {
			return f, true
		}
	}
	return nil, false
}

// Identifier returns the identifier value of entity, which may be a T or *T.
// The boolean is false when the identifier is nil or the zero value.
func (m *EntityMetadata) Identifier(entity any) (any, bool) {
	v, ok := m.structValue(entity)
	if !ok {
		return nil, false
	}
	fv, err := v.FieldByIndexErr(m.PrimaryKey.Index)
	if err != nil {
		return nil, false
	}
	return indirectValue(fv)
}

// IsPersistent reports whether entity carries a non-null identifier.
func (m *EntityMetadata) IsPersistent(entity any) bool {
	_, ok := m.Identifier(entity)
	return ok
}

// NormalizeID converts id to the identifier's underlying Go type so it can be
// used as an identity map key and as a bound query parameter.
func (m *EntityMetadata) NormalizeID(id any) (any, error) {
	rv := reflect.ValueOf(id)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, daoerrors.NewNilArgumentError("id")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, daoerrors.NewNilArgumentError("id")
	}

	target := m.PrimaryKey.StructField.Type
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	if rv.Type() == target {
		return rv.Interface(), nil
	}
	if sameKindFamily(rv.Kind(), target.Kind()) && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface(), nil
	}
	return nil, daoerrors.NewArgumentError("id", "type "+rv.Type().String()+" does not match identifier type "+target.String())
}

func (m *EntityMetadata) structValue(entity any) (reflect.Value, bool) {
	v := reflect.ValueOf(entity)
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != m.Type {
		return reflect.Value{}, false
	}
	return v, true
}

func indirectValue(fv reflect.Value) (any, bool) {
	switch fv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if fv.IsNil() {
			return nil, false
		}
		fv = fv.Elem()
	}
	if fv.IsZero() {
		return nil, false
	}
	return fv.Interface(), true
}

func sameKindFamily(a, b reflect.Kind) bool {
	return kindFamily(a) != 0 && kindFamily(a) == kindFamily(b)
}

func kindFamily(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 1
	case reflect.String:
		return 2
	default:
		return 0
	}
}
