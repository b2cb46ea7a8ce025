package marshal

import (
	"github.com/wippyai/xbridge/vec"
)

// Unique is an exclusively owned native object with a destructor. Exactly
// one of Release or Drop ends ownership; Drop after either is a no-op and
// any other use panics. The null Unique owns nothing.
type Unique[T any] struct {
	ptr     *T
	destroy func(*T)
	done    bool
}

// NewUnique takes ownership of p. destroy runs once, from Drop; nil means
// the object needs no cleanup.
func NewUnique[T any](p *T, destroy func(*T)) *Unique[T] {
	return &Unique[T]{ptr: p, destroy: destroy}
}

// Null returns an empty Unique.
func Null[T any]() *Unique[T] {
	return &Unique[T]{}
}

// IsNull reports whether u owns nothing.
func (u *Unique[T]) IsNull() bool {
	u.mustLive("IsNull")
	return u.ptr == nil
}

// Get borrows the object. Getting through a null Unique is a violation.
func (u *Unique[T]) Get() *T {
	u.mustLive("Get")
	if u.ptr == nil {
		violation("dereference of a null Unique")
	}
	return u.ptr
}

// Release ends ownership without running the destructor and returns the
// object to the caller, who becomes responsible for it.
func (u *Unique[T]) Release() *T {
	u.mustLive("Release")
	p := u.ptr
	u.ptr, u.destroy, u.done = nil, nil, true
	return p
}

// Drop runs the destructor once.
func (u *Unique[T]) Drop() {
	if u.done {
		return
	}
	u.done = true
	if u.ptr != nil && u.destroy != nil {
		u.destroy(u.ptr)
	}
	u.ptr, u.destroy = nil, nil
}

// Live reports whether u still owns its object.
func (u *Unique[T]) Live() bool {
	return !u.done
}

func (u *Unique[T]) mustLive(op string) {
	if u.done {
		useAfterConsume("Unique." + op)
	}
}

// UniqueVec wraps an owned vector; dropping the Unique frees the storage.
func UniqueVec[T any](v *vec.Vec[T]) *Unique[vec.Vec[T]] {
	return NewUnique(v, func(v *vec.Vec[T]) { v.Drop() })
}

// UniqueSeq wraps a sequence that arrived through the bridge, so the
// receiver's ordinary Drop frees it exactly once.
func UniqueSeq[T any](raw *vec.RawVec[T]) *Unique[vec.RawVec[T]] {
	return NewUnique(raw, func(r *vec.RawVec[T]) { r.Drop() })
}

// UniqueString wraps an owned native string.
func UniqueString(s *NativeString) *Unique[NativeString] {
	return NewUnique(s, func(s *NativeString) { s.Drop() })
}
