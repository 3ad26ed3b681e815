// Package medium defines the persistent key-value medium underneath rKV: the
// Go counterpart of a browser's local storage shared by all tabs of an origin.
//
// Key Components:
//
//   - IMedium: one execution context (tab, process, goroutine owner) of the
//     medium. Provides SetItem, GetItem, RemoveItem and Keys, and reports
//     writes of other contexts through Watch, mirroring the storage event.
//
//   - Event: the external change notification carrying the key, the new value
//     (or a deletion marker) and the origin of the writer.
//
// Implementations:
//
//   - memory: all contexts live in one process. Events are dispatched
//     synchronously. Used by tests and embedded setups.
//     Available in "github.com/ValentinKolb/rKV/lib/medium/memory".
//
//   - fsmedium: one directory is one origin. Each key is a file, and changes
//     made by other processes are observed with fsnotify.
//     Available in "github.com/ValentinKolb/rKV/lib/medium/fsmedium".
//
//   - badgermedium: an embedded BadgerDB shared by contexts of one process,
//     using the BadgerDB subscription feed for change events.
//     Available in "github.com/ValentinKolb/rKV/lib/medium/badgermedium".
//
//   - sqlmedium: a SQLite database shared by any number of processes, with an
//     append-only change log polled for events.
//     Available in "github.com/ValentinKolb/rKV/lib/medium/sqlmedium".
//
// Every implementation is validated by the conformance suite in
// "github.com/ValentinKolb/rKV/lib/medium/testing".
package medium
