// Package fsmedium implements medium.IMedium on a directory, so that several
// processes (the Go counterpart of browser tabs) share the same items.
//
// Implementation Details:
//
//   - File Layout: every key is stored in its own file named after the
//     path-escaped key. The file starts with the id of the writing context on
//     its own line, followed by the raw value. Names starting with a dot are
//     reserved for temporary files.
//
//   - Atomic Writes: values are written to a temporary file which is renamed
//     onto the item file, so readers never see partial values.
//
//   - Change Events: an fsnotify watcher observes the directory. Creates and
//     writes are reported with the origin read from the file; events caused by
//     the context itself are dropped. Removals performed by the context itself
//     are remembered until their event arrives and are dropped as well.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. Watch callbacks run on the
//	event loop goroutine, which stops when Close is called.
package fsmedium
