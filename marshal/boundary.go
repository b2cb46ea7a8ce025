package marshal

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/errors"
)

// Exception is what native code throws to fail a call. It never escapes a
// boundary: Try turns it into a failed Result.
type Exception struct {
	Message string
}

func (e *Exception) Error() string {
	return e.Message
}

// Throw raises an Exception with msg.
func Throw(msg string) {
	panic(&Exception{Message: msg})
}

// Throwf raises an Exception with a formatted message.
func Throwf(format string, args ...any) {
	panic(&Exception{Message: fmt.Sprintf(format, args...)})
}

// Try runs fn at a call boundary and reifies its outcome. A returned error,
// a thrown Exception, or a panic with an error or string value becomes a
// failed Result carrying only the message. Contract violations and Go
// runtime errors are not failures of the callee; they are re-raised.
func Try[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg, ok := failureMessage(r)
		if !ok {
			panic(r)
		}
		Logger().Debug("call failed at boundary", zap.String("message", msg))
		res = Fail[T](msg)
	}()

	v, err := fn()
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.IsViolation() {
			panic(e)
		}
		Logger().Debug("call returned error", zap.Error(err))
		return Fail[T](err.Error())
	}
	return Ok(v)
}

// TryUnit is Try for calls without a payload.
func TryUnit(fn func() error) Result[Unit] {
	return Try(func() (Unit, error) {
		return Unit{}, fn()
	})
}

func failureMessage(r any) (string, bool) {
	if _, ok := errors.AsViolation(r); ok {
		return "", false
	}
	switch v := r.(type) {
	case runtime.Error:
		return "", false
	case *Exception:
		return v.Message, true
	case *Failure:
		return v.Message, true
	case error:
		return v.Error(), true
	case string:
		return v, true
	}
	return "", false
}
