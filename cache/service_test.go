package cache

import (
	"context"
	"errors"
	"testing"

	daoerrors "github.com/goliatone/go-generic-dao/errors"
)

// mockCacheService records calls and returns a fixed result.
type mockCacheService struct {
	result any
	err    error

	fetchKeys   []string
	deletedKeys []string
	prefixes    []string
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	m.fetchKeys = append(m.fetchKeys, key)
	return m.result, m.err
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	m.deletedKeys = append(m.deletedKeys, key)
	return nil
}

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.prefixes = append(m.prefixes, prefix)
	return nil
}

func (m *mockCacheService) InvalidateKeys(ctx context.Context, keys []string) error {
	m.deletedKeys = append(m.deletedKeys, keys...)
	return nil
}

func TestGetOrFetch_NilResult(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type finder interface{ Find() string }

	result, err := GetOrFetch[finder](context.Background(), mock, "key", func(ctx context.Context) (finder, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointer(t *testing.T) {
	mock := &mockCacheService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "key", func(ctx context.Context) (*string, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "key", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesError(t *testing.T) {
	errFetch := errors.New("fetch failed")
	mock := &mockCacheService{result: 1, err: errFetch}

	result, err := GetOrFetch[int](context.Background(), mock, "key", func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, errFetch) {
		t.Errorf("expected %v but got: %v", errFetch, err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	mock := &mockCacheService{result: "value"}

	result, err := GetOrFetch[string](context.Background(), mock, "key", func(ctx context.Context) (string, error) {
		return "value", nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != "value" {
		t.Errorf("expected 'value' but got: '%s'", result)
	}
	if len(mock.fetchKeys) != 1 || mock.fetchKeys[0] != "key" {
		t.Errorf("expected one fetch for key, got %v", mock.fetchKeys)
	}
}

func TestNewCacheService(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService() error = %v", err)
	}

	ctx := context.Background()
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	first, _ := GetOrFetch[int](ctx, svc, "dummy::count_all", fetch)
	second, _ := GetOrFetch[int](ctx, svc, "dummy::count_all", fetch)
	if first != 1 || second != 1 {
		t.Errorf("expected cached value 1 twice, got %d and %d", first, second)
	}

	if err := svc.DeleteByPrefix(ctx, "dummy::"); err != nil {
		t.Fatalf("DeleteByPrefix() error = %v", err)
	}
	third, _ := GetOrFetch[int](ctx, svc, "dummy::count_all", fetch)
	if third != 2 {
		t.Errorf("expected refetch after invalidation, got %d", third)
	}
}

func TestNewCacheService_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 0

	if _, err := NewCacheService(cfg); !errors.Is(err, daoerrors.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
