// Package reactive provides Value, an observable in-memory value persisted
// through a kvstore.Store and kept in sync with other contexts of the same
// medium, and Registry, which hands out one shared Value per logical name.
package reactive
