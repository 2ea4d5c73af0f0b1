package failure

// Result is either Success(value) or Failure(kind, message).
type Result[T any] struct {
	value T
	err   *Error
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure builds a failed result of the given kind.
func Failure[T any](kind Kind, msg string) Result[T] {
	return Result[T]{err: New(kind, msg)}
}

// FailureFrom builds a failed result from err, keeping its kind when err is
// already classified.
func FailureFrom[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{err: New(KindUnknown, "nil error")}
	}
	if fe, ok := err.(*Error); ok { //nolint:errorlint // exact type keeps kind and message intact
		return Result[T]{err: fe}
	}
	return Result[T]{err: Wrap(KindOf(err), err, "operation failed")}
}

// Ok reports whether r is a success.
func (r Result[T]) Ok() bool { return r.err == nil }

// Value returns the wrapped value; the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure or nil.
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Kind returns the failure kind, KindUnknown on success.
func (r Result[T]) Kind() Kind {
	if r.err == nil {
		return KindUnknown
	}
	return r.err.Kind
}

// Unpack returns the value and error in the usual Go form.
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.Err()
}
