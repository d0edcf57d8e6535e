package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-generic-dao/dao"
	"github.com/goliatone/go-generic-dao/daocache"
	"github.com/goliatone/go-generic-dao/pkg/testsupport"
)

type Dummy = testsupport.Dummy

// seed stores one dummy per value in its own committed transaction and
// returns the generated identifiers.
func seed(t testing.TB, container *Container, values ...string) []int64 {
	t.Helper()

	dummies, err := NewDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewDAO() failed: %v", err)
	}

	ids := make([]int64, 0, len(values))
	err = container.TransactionManager().RunInTransaction(context.Background(), func(ctx context.Context) error {
		for _, v := range values {
			d := testsupport.NewDummy(v)
			if err := dummies.Save(ctx, d); err != nil {
				return err
			}
			ids = append(ids, *d.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding failed: %v", err)
	}
	return ids
}

// withSession runs fn with a session bound to the context.
func withSession(t testing.TB, container *Container, fn func(ctx context.Context)) {
	t.Helper()

	err := container.SessionFactory().WithSession(context.Background(), func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession() failed: %v", err)
	}
}

func TestEndToEndCachedDAOFlow(t *testing.T) {
	container := newTestContainer(t, testConfig())
	ids := seed(t, container, "bbbb", "aaaa", "cccc")

	cached, err := NewCachedDAO[Dummy, int64](container, dao.WithDefaultSortCriteria(dao.Asc("String")))
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	// Phase 1: reads populate the cache across sessions
	withSession(t, container, func(ctx context.Context) {
		all, err := cached.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() failed: %v", err)
		}
		if len(all) != 3 || all[0].String != "aaaa" {
			t.Fatalf("Unexpected FindAll() result: %+v", all)
		}
		if _, err := cached.FindByID(ctx, ids[0]); err != nil {
			t.Fatalf("FindByID() failed: %v", err)
		}
	})

	// Phase 2: a row inserted behind the cache is not visible yet
	seed(t, container, "dddd")
	withSession(t, container, func(ctx context.Context) {
		all, err := cached.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("Expected the cached result with 3 rows, got %d", len(all))
		}
	})

	// Phase 3: a write through the cached DAO invalidates list keys
	err = container.TransactionManager().RunInTransaction(context.Background(), func(ctx context.Context) error {
		d, err := cached.FindByID(ctx, ids[0])
		if err != nil {
			return err
		}
		d.String = "eeee"
		_, err = cached.Update(ctx, d)
		return err
	})
	if err != nil {
		t.Fatalf("Update transaction failed: %v", err)
	}

	withSession(t, container, func(ctx context.Context) {
		all, err := cached.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() failed: %v", err)
		}
		got := make([]string, 0, len(all))
		for _, d := range all {
			got = append(got, d.String)
		}
		if fmt.Sprint(got) != "[aaaa cccc dddd eeee]" {
			t.Errorf("Unexpected FindAll() after update: %v", got)
		}

		d, err := cached.FindByID(ctx, ids[0])
		if err != nil {
			t.Fatalf("FindByID() failed: %v", err)
		}
		if d.String != "eeee" {
			t.Errorf("Expected FindByID() to see the update, got %q", d.String)
		}
	})
}

func TestCacheEvictionFlow(t *testing.T) {
	container := newTestContainer(t, testConfig())
	ids := seed(t, container, "bbbb")

	cached, err := NewCachedDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	withSession(t, container, func(ctx context.Context) {
		tagged := daocache.WithCacheTags(ctx, "dashboard")
		if _, err := cached.FindByID(tagged, ids[0]); err != nil {
			t.Fatalf("FindByID() failed: %v", err)
		}
		if _, err := cached.CountAll(tagged); err != nil {
			t.Fatalf("CountAll() failed: %v", err)
		}
	})
	if got := container.KeyRegistry().Len(); got != 2 {
		t.Fatalf("Expected 2 tracked keys, got %d", got)
	}

	withSession(t, container, func(ctx context.Context) {
		if err := cached.InvalidateTags(ctx, "dashboard"); err != nil {
			t.Fatalf("InvalidateTags() failed: %v", err)
		}
	})
	if got := container.KeyRegistry().Len(); got != 0 {
		t.Errorf("Expected no tracked keys after invalidation, got %d", got)
	}
}

func TestErrorPropagation(t *testing.T) {
	container := newTestContainer(t, testConfig())

	cached, err := NewCachedDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	// no session bound
	if _, err := cached.FindAll(context.Background()); err == nil {
		t.Error("Expected FindAll() without a session to fail")
	}

	withSession(t, container, func(ctx context.Context) {
		if _, err := cached.FindPage(ctx, 0, 10, dao.Asc("missing")); err == nil {
			t.Error("Expected FindPage() with an unknown property to fail")
		}
	})

	if _, err := NewDAO[testsupport.Unkeyed, int64](container); err == nil {
		t.Error("Expected NewDAO() for an unmapped type to fail")
	}
}

func TestTransactionRollbackKeepsCacheConsistent(t *testing.T) {
	container := newTestContainer(t, testConfig())
	seed(t, container, "bbbb")

	cached, err := NewCachedDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	errAbort := errors.New("abort")
	err = container.TransactionManager().RunInTransaction(context.Background(), func(ctx context.Context) error {
		if err := cached.Save(ctx, testsupport.NewDummy("rolled back")); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("Expected abort error, got %v", err)
	}

	withSession(t, container, func(ctx context.Context) {
		count, err := cached.CountAll(ctx)
		if err != nil {
			t.Fatalf("CountAll() failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 row after rollback, got %d", count)
		}
	})
}

func TestConcurrentAccess(t *testing.T) {
	container := newTestContainer(t, testConfig())

	values := make([]string, 50)
	for i := range values {
		values[i] = fmt.Sprintf("dummy-%02d", i)
	}
	ids := seed(t, container, values...)

	cached, err := NewCachedDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	const numGoroutines = 20
	const operationsPerGoroutine = 25

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*operationsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			err := container.SessionFactory().WithSession(context.Background(), func(ctx context.Context) error {
				for j := 0; j < operationsPerGoroutine; j++ {
					idx := (workerID + j) % len(ids)
					d, err := cached.FindByID(ctx, ids[idx])
					if err != nil {
						return err
					}
					if d == nil || d.String != values[idx] {
						return fmt.Errorf("worker %d: unexpected entity %+v for id %d", workerID, d, ids[idx])
					}
					if j%5 == 0 {
						if _, err := cached.CountAll(ctx); err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestTTLExpiryIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Capacity = 50
	cfg.Cache.NumShards = 4
	cfg.Cache.TTL = 200 * time.Millisecond

	container := newTestContainer(t, cfg)
	ids := seed(t, container, "bbbb")

	cached, err := NewCachedDAO[Dummy, int64](container)
	if err != nil {
		t.Fatalf("NewCachedDAO() failed: %v", err)
	}

	read := func() string {
		var s string
		withSession(t, container, func(ctx context.Context) {
			d, err := cached.FindByID(ctx, ids[0])
			if err != nil || d == nil {
				t.Fatalf("FindByID() = %v, %v", d, err)
			}
			s = d.String
		})
		return s
	}

	if got := read(); got != "bbbb" {
		t.Fatalf("Expected bbbb, got %q", got)
	}

	// change the row behind the cache
	_, err = container.DB().ExecContext(context.Background(),
		`UPDATE "dummies" SET "string" = ? WHERE "id" = ?`, "changed", ids[0])
	if err != nil {
		t.Fatalf("direct update failed: %v", err)
	}

	if got := read(); got != "bbbb" {
		t.Errorf("Expected the cached value before expiry, got %q", got)
	}

	time.Sleep(300 * time.Millisecond)

	if got := read(); got != "changed" {
		t.Errorf("Expected the stored value after expiry, got %q", got)
	}
}
