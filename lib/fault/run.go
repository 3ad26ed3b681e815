package fault

// Handler receives the failure of a guarded operation (a returned error or a
// recovered panic value) and produces the result returned by Run.
type Handler[T any] func(failure any) T

// Mute is the explicit "no handler": the failure is swallowed without being
// logged, shown or rethrown, and the zero value is returned.
func Mute[T any](any) T {
	var zero T
	return zero
}

// Guard configures Run. The zero Guard logs failures through the Boundary.
type Guard[T any] struct {
	// Fallback runs when the operation fails. Its result replaces the failed one.
	Fallback func() (T, error)
	// Handler receives the final failure. Nil means Boundary.Handle.
	Handler Handler[T]
	// Finally runs exactly once before Run returns, also on failure.
	Finally func()
}

// Run executes op inside the boundary.
//
// If op fails, Fallback (if any) is executed and its result returned. If
// there is no Fallback or it fails as well, the last failure is passed to
// Handler and its result returned. Run never panics unless Handler does.
func Run[T any](b *Boundary, op func() (T, error), g Guard[T]) T {
	if g.Finally != nil {
		defer g.Finally()
	}

	res, failure := attempt(op)
	if failure == nil {
		return res
	}

	if g.Fallback != nil {
		fbRes, fbFailure := attempt(g.Fallback)
		if fbFailure == nil {
			return fbRes
		}
		failure = fbFailure
	}

	if g.Handler != nil {
		return g.Handler(failure)
	}
	b.Handle(failure)
	var zero T
	return zero
}

// InMute runs op and silently swallows any failure. Used for best-effort reads.
func InMute[T any](b *Boundary, op func() (T, error), fallback func() (T, error)) T {
	return Run(b, op, Guard[T]{Fallback: fallback, Handler: Mute[T]})
}

// InNotification runs op and shows a failure to the user.
func InNotification[T any](b *Boundary, op func() (T, error), fallback func() (T, error), message string) T {
	return Run(b, op, Guard[T]{
		Fallback: fallback,
		Handler: func(failure any) T {
			b.NotifyUser(failure, message, true)
			var zero T
			return zero
		},
	})
}

// attempt calls op and converts a returned error or a panic into a failure value.
func attempt[T any](op func() (T, error)) (res T, failure any) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res, failure = zero, r
		}
	}()

	v, err := op()
	if err != nil {
		return v, err
	}
	return v, nil
}
