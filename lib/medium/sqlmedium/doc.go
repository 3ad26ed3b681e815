// Package sqlmedium implements medium.IMedium on a SQLite database
// (modernc.org/sqlite, no cgo), shareable by any number of processes.
//
// The database holds two tables: items with the current value per key and
// changes, an append-only log written in the same transaction as every
// SetItem and RemoveItem. Each context polls the log (Config.PollInterval)
// for entries written by other contexts and reports them through Watch.
// Entries older than Config.Retention are pruned.
//
// The database runs in WAL mode with a 5 second busy timeout, so concurrent
// processes wait for each other instead of failing.
package sqlmedium
