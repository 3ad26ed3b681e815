// Package memory implements medium.IMedium entirely in process memory.
//
// An Origin models the storage shared by all tabs of a browser origin; each
// Context obtained from it is one tab. Writes of one context are dispatched
// synchronously to the watchers of all other contexts once the write is
// visible, so tests can observe cross-context propagation deterministically.
//
// Contexts count their own writes (Writes) and can be told to fail reads or
// writes (FailReads, FailWrites) to simulate disabled storage or an exceeded
// quota.
//
// Usage Example:
//
//	origin := memory.NewOrigin()
//	tabA, tabB := origin.NewContext(), origin.NewContext()
//	tabB.Watch(func(ev medium.Event) { fmt.Println("changed:", ev.Key) })
//	_ = tabA.SetItem("cw-user_code", `"newcomer"`) // prints "changed: cw-user_code"
package memory
