package marshal

// Failure is the failure side of a Result: an opaque human-readable message.
// It deliberately carries no code or structure.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Unit is the payload of a fallible call that returns nothing.
type Unit struct{}

// Result is the outcome of a fallible call: exactly one of a value or a
// failure message. Results are built with Ok, Fail or Try; the zero Result
// is not a valid outcome and using it panics.
type Result[T any] struct {
	value T
	msg   string
	ok    bool
	set   bool
}

// Ok returns a successful result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true, set: true}
}

// Fail returns a failed result carrying msg.
func Fail[T any](msg string) Result[T] {
	return Result[T]{msg: msg, set: true}
}

// OkUnit is the successful result of a call with no payload.
func OkUnit() Result[Unit] {
	return Ok(Unit{})
}

func (r Result[T]) mustSet() {
	if !r.set {
		violation("use of an unset Result")
	}
}

// IsOk reports whether the call succeeded.
func (r Result[T]) IsOk() bool {
	r.mustSet()
	return r.ok
}

// Value returns the payload and true on success.
func (r Result[T]) Value() (T, bool) {
	r.mustSet()
	return r.value, r.ok
}

// Err returns nil on success and a *Failure otherwise.
func (r Result[T]) Err() error {
	r.mustSet()
	if r.ok {
		return nil
	}
	return &Failure{Message: r.msg}
}

// Message returns the failure message, or "" on success.
func (r Result[T]) Message() string {
	r.mustSet()
	return r.msg
}

// Unwrap returns the payload or panics with the *Failure. Inside Try the
// panic turns back into the same failure.
func (r Result[T]) Unwrap() T {
	r.mustSet()
	if !r.ok {
		panic(&Failure{Message: r.msg})
	}
	return r.value
}

func (r Result[T]) String() string {
	if !r.set {
		return "Result(unset)"
	}
	if r.ok {
		return "Ok"
	}
	return "Fail(" + r.msg + ")"
}
