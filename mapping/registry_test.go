package mapping_test

import (
	"context"
	"reflect"
	"testing"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/pkg/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRequiresDB(t *testing.T) {
	_, err := mapping.NewRegistry(nil)
	assert.True(t, daoerrors.IsInvalidArgument(err), "got %v", err)
}

func TestRegister(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)

	tests := []struct {
		name    string
		model   any
		wantErr func(error) bool
	}{
		{"nil pointer model", (*testsupport.Dummy)(nil), nil},
		{"struct value", testsupport.Label{}, nil},
		{"no primary key", (*testsupport.Unkeyed)(nil), daoerrors.IsConfiguration},
		{"composite primary key", (*testsupport.Pair)(nil), daoerrors.IsConfiguration},
		{"not a struct", 42, daoerrors.IsConfiguration},
		{"nil", nil, daoerrors.IsInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := mapping.NewRegistry(db)
			require.NoError(t, err)

			err = registry.Register(tt.model)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Len(t, registry.Entities(), 1)
				return
			}
			assert.True(t, tt.wantErr(err), "got %v", err)
			assert.Empty(t, registry.Entities())
		})
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	registry, err := mapping.NewRegistry(testsupport.NewSQLiteDB(t), (*testsupport.Dummy)(nil), testsupport.Dummy{})
	require.NoError(t, err)

	require.NoError(t, registry.Register((*testsupport.Label)(nil), (*testsupport.Dummy)(nil)))

	entities := registry.Entities()
	require.Len(t, entities, 2)
	assert.Equal(t, "dummies", entities[0].TableName)
	assert.Equal(t, "labels", entities[1].TableName)
}

func TestMetadataLookup(t *testing.T) {
	registry, err := mapping.NewRegistry(testsupport.NewSQLiteDB(t), testsupport.Models()...)
	require.NoError(t, err)

	byValue, ok := registry.Metadata(reflect.TypeOf(testsupport.Dummy{}))
	require.True(t, ok)
	byPointer, ok := registry.Metadata(reflect.TypeOf(&testsupport.Dummy{}))
	require.True(t, ok)
	assert.Same(t, byValue, byPointer)

	_, ok = registry.Metadata(reflect.TypeOf(testsupport.Unkeyed{}))
	assert.False(t, ok)

	_, ok = registry.Metadata(nil)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	registry, err := mapping.NewRegistry(testsupport.NewSQLiteDB(t), testsupport.Models()...)
	require.NoError(t, err)

	meta, err := mapping.Resolve[testsupport.Dummy](registry)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(testsupport.Dummy{}), meta.Type)

	meta, err = mapping.Resolve[*testsupport.Label](registry)
	require.NoError(t, err)
	assert.Equal(t, "code", meta.PrimaryKeyColumn())

	_, err = mapping.Resolve[testsupport.Unkeyed](registry)
	assert.True(t, daoerrors.IsConfiguration(err), "got %v", err)

	_, err = mapping.Resolve[testsupport.Dummy](nil)
	assert.True(t, daoerrors.IsInvalidArgument(err), "got %v", err)

	var typedNil *mapping.Registry
	_, err = mapping.Resolve[testsupport.Dummy](typedNil)
	assert.True(t, daoerrors.IsInvalidArgument(err), "got %v", err)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, reflect.TypeOf(testsupport.Dummy{}), mapping.TypeOf[testsupport.Dummy]())
	assert.Equal(t, reflect.TypeOf(testsupport.Dummy{}), mapping.TypeOf[*testsupport.Dummy]())
}

func TestCreateTables(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	registry, err := mapping.NewRegistry(db, testsupport.Models()...)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, registry.CreateTables(ctx))
	require.NoError(t, registry.CreateTables(ctx), "second run must be a no-op")

	count, err := db.NewSelect().Model((*testsupport.Label)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
