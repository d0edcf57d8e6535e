package daocache

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// KeyRegistry remembers the cache keys written by cached DAOs and the tags
// they were read under. Share one registry between DAOs to make
// InvalidateTags reach every entity.
type KeyRegistry struct {
	keys *xsync.MapOf[string, struct{}]
	tags *xsync.MapOf[string, *xsync.MapOf[string, struct{}]]
}

// NewKeyRegistry creates an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{
		keys: xsync.NewMapOf[string, struct{}](),
		tags: xsync.NewMapOf[string, *xsync.MapOf[string, struct{}]](),
	}
}

func (r *KeyRegistry) track(key string, tags []string) {
	r.keys.Store(key, struct{}{})
	for _, tag := range tags {
		set, _ := r.tags.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		set.Store(key, struct{}{})
	}
}

func (r *KeyRegistry) withPrefix(prefix string) []string {
	var keys []string
	r.keys.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// takeTag removes tag and returns the keys registered under it.
func (r *KeyRegistry) takeTag(tag string) []string {
	set, ok := r.tags.LoadAndDelete(tag)
	if !ok {
		return nil
	}
	var keys []string
	set.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func (r *KeyRegistry) forget(keys ...string) {
	for _, key := range keys {
		r.keys.Delete(key)
	}
}

// Len returns the number of tracked keys.
func (r *KeyRegistry) Len() int {
	return r.keys.Size()
}

// Tagged reports whether key is registered under tag.
func (r *KeyRegistry) Tagged(tag, key string) bool {
	set, ok := r.tags.Load(tag)
	if !ok {
		return false
	}
	_, ok = set.Load(key)
	return ok
}
