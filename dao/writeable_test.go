package dao_test

import (
	"context"
	"database/sql"
	"testing"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
	"github.com/goliatone/go-generic-dao/pkg/testsupport"
	"github.com/goliatone/go-generic-dao/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	factory := testsupport.NewFactory(t)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	dummy := testsupport.NewDummy("bbbb", 1, 2)
	require.NoError(t, d.Save(ctx, dummy))
	require.NotNil(t, dummy.ID)
	assert.True(t, s.Contains(d.Metadata(), dummy))

	persistent, err := d.IsPersistent(dummy)
	require.NoError(t, err)
	assert.True(t, persistent)

	assert.True(t, daoerrors.IsInvalidArgument(d.Save(ctx, nil)))
}

func TestUpdate(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, _ := testsupport.BindSession(t, factory)

	loaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	loaded.String = "aaaa"
	loaded.Elements = append(loaded.Elements, 3)

	updated, err := d.Update(ctx, loaded)
	require.NoError(t, err)
	assert.Same(t, loaded, updated)

	otherCtx, _ := testsupport.BindSession(t, factory)
	reloaded, err := d.FindByID(otherCtx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "aaaa", reloaded.String)
	assert.Equal(t, []int{1, 2, 3}, reloaded.Elements)
}

func TestUpdateRejectsInvalidObjects(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, _ := testsupport.BindSession(t, factory)

	_, err := d.Update(ctx, nil)
	assert.True(t, daoerrors.IsInvalidArgument(err), "got %v", err)

	_, err = d.Update(ctx, testsupport.NewDummy("transient"))
	assert.True(t, daoerrors.IsInvalidArgument(err), "got %v", err)

	_, err = d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	_, err = d.Update(ctx, &Dummy{ID: ptr(ids[0]), String: "copy"})
	assert.True(t, daoerrors.IsNonUniqueObject(err), "got %v", err)
}

func TestDetachedUpdate(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	detached := &Dummy{ID: ptr(ids[1]), String: "detached", Number: 7}
	_, err := d.Update(ctx, detached)
	require.NoError(t, err)
	assert.True(t, s.Contains(d.Metadata(), detached))

	count, err := d.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestFailedUpdateLeavesObjectUntracked(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	detached := &Dummy{ID: ptr(ids[0]), String: "never stored"}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := d.Update(cancelled, detached)
	require.Error(t, err)
	assert.False(t, s.Contains(d.Metadata(), detached))

	loaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.NotSame(t, detached, loaded)
	assert.Equal(t, "bbbb", loaded.String)
}

func TestDeleteByID(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	loaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)

	require.NoError(t, d.DeleteByID(ctx, ids[0]))
	assert.False(t, s.Contains(d.Metadata(), loaded))

	found, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, d.DeleteByID(ctx, 9999))

	count, err := d.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDelete(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	loaded, err := d.FindByID(ctx, ids[2])
	require.NoError(t, err)
	require.NoError(t, d.Delete(ctx, loaded))
	assert.False(t, s.Contains(d.Metadata(), loaded))

	count, err := d.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.True(t, daoerrors.IsInvalidArgument(d.Delete(ctx, nil)))
	assert.True(t, daoerrors.IsInvalidArgument(d.Delete(ctx, testsupport.NewDummy("transient"))))
}

func TestEvict(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, s := testsupport.BindSession(t, factory)

	loaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	require.NoError(t, d.Evict(ctx, loaded))
	assert.False(t, s.Contains(d.Metadata(), loaded))

	loaded.String = "not written"
	reloaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.NotSame(t, loaded, reloaded)
	assert.Equal(t, "bbbb", reloaded.String)

	require.NoError(t, d.Evict(ctx, testsupport.NewDummy("never tracked")))
	assert.True(t, daoerrors.IsInvalidArgument(d.Evict(ctx, nil)))
}

func TestMerge(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)

	t.Run("transient saves a copy", func(t *testing.T) {
		ctx, _ := testsupport.BindSession(t, factory)
		transient := testsupport.NewDummy("merged", 8)

		merged, err := d.Merge(ctx, transient)
		require.NoError(t, err)
		assert.NotSame(t, transient, merged)
		assert.Nil(t, transient.ID)
		require.NotNil(t, merged.ID)
		assert.Equal(t, "merged", merged.String)
	})

	t.Run("detached copies onto tracked instance", func(t *testing.T) {
		ctx, _ := testsupport.BindSession(t, factory)
		managed, err := d.FindByID(ctx, ids[0])
		require.NoError(t, err)

		detached := &Dummy{ID: ptr(ids[0]), String: "from detached", Elements: []int{9}}
		merged, err := d.Merge(ctx, detached)
		require.NoError(t, err)
		assert.Same(t, managed, merged)
		assert.Equal(t, "from detached", managed.String)
	})

	t.Run("detached loads managed instance", func(t *testing.T) {
		ctx, s := testsupport.BindSession(t, factory)
		detached := &Dummy{ID: ptr(ids[1]), String: "loaded then merged"}

		merged, err := d.Merge(ctx, detached)
		require.NoError(t, err)
		assert.NotSame(t, detached, merged)
		assert.False(t, s.Contains(d.Metadata(), detached))
		assert.True(t, s.Contains(d.Metadata(), merged))

		otherCtx, _ := testsupport.BindSession(t, factory)
		reloaded, err := d.FindByID(otherCtx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "loaded then merged", reloaded.String)
	})

	t.Run("nil", func(t *testing.T) {
		ctx, _ := testsupport.BindSession(t, factory)
		_, err := d.Merge(ctx, nil)
		assert.True(t, daoerrors.IsInvalidArgument(err))
	})
}

func TestRefresh(t *testing.T) {
	factory := testsupport.NewFactory(t)
	ids := seedDummies(t, factory)
	d := newDummyDAO(t, factory)
	ctx, _ := testsupport.BindSession(t, factory)

	loaded, err := d.FindByID(ctx, ids[0])
	require.NoError(t, err)
	loaded.String = "local change"

	require.NoError(t, d.Refresh(ctx, loaded))
	assert.Equal(t, "bbbb", loaded.String)

	require.NoError(t, d.DeleteByID(ctx, ids[0]))
	assert.ErrorIs(t, d.Refresh(ctx, loaded), sql.ErrNoRows)

	assert.True(t, daoerrors.IsInvalidArgument(d.Refresh(ctx, testsupport.NewDummy("transient"))))
}

func TestIsPersistent(t *testing.T) {
	d := newDummyDAO(t, testsupport.NewFactory(t))

	persistent, err := d.IsPersistent(testsupport.NewDummy("x"))
	require.NoError(t, err)
	assert.False(t, persistent)

	persistent, err = d.IsPersistent(&Dummy{ID: ptr(int64(3))})
	require.NoError(t, err)
	assert.True(t, persistent)

	_, err = d.IsPersistent(nil)
	assert.True(t, daoerrors.IsInvalidArgument(err))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	factory := testsupport.NewFactory(t)
	d := newDummyDAO(t, factory)
	tm, err := session.NewTransactionManager(factory)
	require.NoError(t, err)
	ctx, _ := testsupport.BindSession(t, factory)

	errBoom := assert.AnError
	err = tm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := d.Save(ctx, testsupport.NewDummy("rolled back")); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	count, err := d.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
