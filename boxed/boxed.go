package boxed

// Fill builds n elements on the heap, element i being init(i). init is called
// exactly n times with 0, 1, ..., n-1 in that order.
//
// If init panics on call k, elements 0..k-1 are released (see Releaser), the
// storage is dropped and the panic continues with its original value.
func Fill[T any, F ~func(int) T](n int, init F) []T {
	b := Reserve[T](n)
	defer b.Abort()

	for i := 0; i < n; i++ {
		b.Push(init(i))
	}
	return b.Finish()
}

// TryFill is Fill for initializers that can fail. The first error stops
// construction, releases the elements built so far and is returned as
// *InitError. The value returned alongside an error is discarded.
func TryFill[T any, F ~func(int) (T, error)](n int, init F) ([]T, error) {
	b := Reserve[T](n)
	defer b.Abort()

	for i := 0; i < n; i++ {
		v, err := init(i)
		if err != nil {
			return nil, &InitError{Index: i, Err: err}
		}
		b.Push(v)
	}
	return b.Finish(), nil
}
