// Package badgermedium implements medium.IMedium on an embedded BadgerDB.
//
// BadgerDB locks its directory, so all contexts of one database live in the
// same process and are created from a shared Origin. Each context subscribes
// to the BadgerDB change feed (DB.Subscribe) and reports changes written by
// the other contexts.
//
// Implementation Details:
//
//   - Item Layout: keys are stored under the "item/" prefix. The stored value
//     is a kind byte ('v' value, 't' tombstone), the 36 character id of the
//     writing context and the raw value.
//
//   - Removals: a removal replaces the item with a tombstone that expires
//     after Config.TombstoneTTL. The tombstone travels through the change feed
//     like any other write and lets the feed attribute the removal.
//
//   - Startup: NewContext waits until its own probe key is seen on the change
//     feed before returning, so no later change can be missed.
//
// BadgerDB errors and warnings go to the "medium" package logger.
package badgermedium
