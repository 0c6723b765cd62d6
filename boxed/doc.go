// Package boxed builds fixed-size arrays directly on the heap.
//
// The functions emitted by the boxarray generator are thin wrappers around
// Fill and TryFill:
//
//	func Seq[T any, F ~func(int) T](init F) *[3]T {
//		return (*[3]T)(boxed.Fill[T](3, init))
//	}
//
// Construction follows a reserve, fill, transfer protocol. Reserve allocates
// storage for exactly n elements without exposing any of it. Push constructs
// slots strictly in order. Finish hands the filled storage over, and the
// caller converts it to *[N]T without copying. If the initializer fails part
// way, only the already constructed prefix is released (see Releaser) and the
// storage is dropped.
package boxed
