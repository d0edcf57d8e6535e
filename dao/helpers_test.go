package dao_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-generic-dao/dao"
	"github.com/goliatone/go-generic-dao/pkg/testsupport"
	"github.com/goliatone/go-generic-dao/session"
	"github.com/stretchr/testify/require"
)

type Dummy = testsupport.Dummy

func newDummyDAO(t *testing.T, factory *session.Factory, opts ...dao.Option) *dao.GenericDAO[Dummy, int64] {
	t.Helper()

	d, err := dao.New[Dummy, int64](factory, opts...)
	require.NoError(t, err)
	return d
}

// seedDummies stores the dummies fixture through a throwaway session and
// returns their identifiers in fixture order.
func seedDummies(t *testing.T, factory *session.Factory) []int64 {
	t.Helper()

	fixtures := testsupport.LoadDummies(t)

	dummies := newDummyDAO(t, factory)
	ids := make([]int64, 0, len(fixtures))
	err := factory.WithSession(context.Background(), func(ctx context.Context) error {
		for _, d := range fixtures {
			if err := dummies.Save(ctx, d); err != nil {
				return err
			}
			ids = append(ids, *d.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func stringsOf(rows []*Dummy) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.String)
	}
	return out
}
