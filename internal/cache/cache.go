// Package cache holds the small in-process caches used by the ledger
// service.
package cache

// Cache is a keyed store of computed values that can be dropped at once
// when the data they were computed from changes.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Purge()
	Size() int
}
