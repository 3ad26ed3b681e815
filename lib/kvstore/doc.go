// Package kvstore provides the namespaced key-value store every persistent
// value of rKV goes through.
//
// Key Features:
//   - Namespacing: every logical name is stored under a fixed prefix
//     (DefaultPrefix "cw-"). Clear removes only keys under the prefix and
//     leaves unrelated keys of the medium untouched.
//   - Serialization: values are encoded with a codec.ICodec (JSON by default).
//   - Containment: storage and serialization failures never reach the
//     caller. Writes are best-effort and failures are logged through the
//     fault.Boundary; reads fall back to the caller's value silently.
//   - Metrics: operation and failure counters (VictoriaMetrics) and a
//     persisted value size histogram (go-metrics), see Stats and WriteMetrics.
//
// Lifecycle:
//
//	Exactly one Store should own a namespace in a process. Either construct
//	one with New and inject it, or use Instance, whose first call constructs
//	the store and whose later calls return the same one.
//
// Usage Example:
//
//	m, _ := fsmedium.Open("/var/lib/app/state")
//	s := kvstore.New(m)
//	s.Set("user_code", "barista")
//	code := kvstore.Get(s, "user_code", "newcomer")
package kvstore
