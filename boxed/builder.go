package boxed

import (
	"fmt"
	"math/bits"
	"reflect"
	"unsafe"
)

// MaxBytes is the largest backing allocation Reserve will request. It
// mirrors the heap address limit of the Go runtime: 1<<48 on 64-bit
// platforms, 1<<31-1 on 32-bit ones.
const MaxBytes uintptr = 1<<48*(bits.UintSize/64) + (1<<31-1)*(1-bits.UintSize/64)

// Releaser is implemented by elements that own resources beyond their memory.
// When construction is abandoned, Release is called exactly once on every
// element that was already constructed, in index order. Nil pointer
// elements are skipped.
type Releaser interface {
	Release()
}

// Builder is storage reserved for a fixed number of elements that are
// constructed one at a time. Slots past Len hold no value and cannot be
// reached through the Builder.
type Builder[T any] struct {
	buf  []T
	done bool
}

// Reserve allocates storage for exactly n elements of T without constructing
// any of them. It panics with *AllocationError if n is negative or the
// storage would exceed MaxBytes.
func Reserve[T any](n int) *Builder[T] {
	var zero T
	size := unsafe.Sizeof(zero)
	if n < 0 || (size != 0 && uintptr(n) > MaxBytes/size) {
		panic(&AllocationError{Len: n, ElemSize: size})
	}
	return &Builder[T]{buf: make([]T, 0, n)}
}

// Len returns the number of constructed slots.
func (b *Builder[T]) Len() int { return len(b.buf) }

// Cap returns the number of reserved slots.
func (b *Builder[T]) Cap() int { return cap(b.buf) }

// Full reports whether every reserved slot has been constructed.
func (b *Builder[T]) Full() bool { return !b.done && len(b.buf) == cap(b.buf) }

// Push constructs the next slot from v.
func (b *Builder[T]) Push(v T) {
	if b.done {
		panic("boxed: push after finish or abort")
	}
	if len(b.buf) == cap(b.buf) {
		panic(fmt.Sprintf("boxed: push past capacity %d", cap(b.buf)))
	}
	// Capacity is available, so append writes in place.
	b.buf = append(b.buf, v)
}

// Finish hands over the filled storage. The returned slice has length and
// capacity equal to the reserved count and shares the reserved memory, so a
// caller can convert it to *[N]T without copying. The Builder is empty
// afterwards.
func (b *Builder[T]) Finish() []T {
	if b.done {
		panic("boxed: finish after finish or abort")
	}
	if len(b.buf) != cap(b.buf) {
		panic(fmt.Sprintf("boxed: finish with %d of %d slots constructed", len(b.buf), cap(b.buf)))
	}
	s := b.buf
	b.buf = nil
	b.done = true
	return s
}

// Abort releases the constructed prefix and drops the storage. Slots that
// were never pushed are not touched. Abort is a no-op after Finish or a
// previous Abort, so it is safe to defer.
func (b *Builder[T]) Abort() {
	if b.done {
		return
	}
	s := b.buf
	b.buf = nil
	b.done = true

	for i := range s {
		release(&s[i])
	}
	clear(s)
}

func release[T any](p *T) {
	// A nil pointer element owns nothing.
	if v := reflect.ValueOf(*p); v.Kind() == reflect.Pointer && v.IsNil() {
		return
	}
	if r, ok := any(*p).(Releaser); ok {
		r.Release()
		return
	}
	// Pointer receivers on a value element type.
	if r, ok := any(p).(Releaser); ok {
		r.Release()
	}
}
