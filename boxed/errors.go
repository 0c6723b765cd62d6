package boxed

import (
	"fmt"
)

// AllocationError is the panic value of Reserve when storage for the
// requested number of elements cannot be represented.
//
// Running out of memory on a representable request is fatal in the Go
// runtime and never reaches this type.
type AllocationError struct {
	Len      int     // Requested element count
	ElemSize uintptr // Size of one element in bytes
}

func (e *AllocationError) Error() string {
	if e.Len < 0 {
		return fmt.Sprintf("boxed: negative length %d", e.Len)
	}
	return fmt.Sprintf("boxed: cannot allocate %d elements of %d bytes", e.Len, e.ElemSize)
}

// InitError reports an initializer that returned an error for Index.
type InitError struct {
	Index int
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("boxed: init %d: %v", e.Index, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
