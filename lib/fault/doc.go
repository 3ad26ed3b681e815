// Package fault provides the error boundary used by every rKV component.
//
// Any failure entering a Boundary (a returned error, a recovered panic value,
// a plain string or an already classified *Error) is normalized into exactly
// one *Error carrying a message, a numeric Code and the original cause.
//
// Classification Codes:
//
//   - CodeSerialization: a persisted value could not be encoded or decoded.
//     Recovered locally by substituting the caller's fallback.
//   - CodeStorageUnavailable: the persistent medium failed. Reads fall back,
//     writes are dropped while the in-memory update proceeds.
//   - CodeDomain: raised deliberately by calling code. Surfaced to the user
//     when routed through NotifyUser.
//   - CodeUnknown: everything else. Logged, original cause retained.
//
// Usage Example:
//
//	b := fault.NewBoundary()
//	n := fault.Run(b, parseCount, fault.Guard[int]{
//		Fallback: func() (int, error) { return 0, nil },
//	})
//
//	// best-effort, never logged
//	fault.InMute(b, readCache, nil)
//
// A Notifier can be registered at any time with SetNotifier. Until then
// NotifyUser degrades to a blocking alert and logs a warning.
package fault
