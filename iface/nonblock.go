package iface

// NonBlock is the outcome of a non-blocking operation: either a value was
// produced, or the operation would have blocked.
type NonBlock[T any] struct {
	value T
	ready bool
}

func Ready[T any](v T) NonBlock[T] {
	return NonBlock[T]{value: v, ready: true}
}

func WouldBlock[T any]() NonBlock[T] {
	return NonBlock[T]{}
}

func (that NonBlock[T]) IsReady() bool { return that.ready }

func (that NonBlock[T]) IsWouldBlock() bool { return !that.ready }

// Unwrap returns the value and whether it is present.
func (that NonBlock[T]) Unwrap() (T, bool) {
	return that.value, that.ready
}

// Value returns the produced value, or the zero value on would-block.
func (that NonBlock[T]) Value() T {
	return that.value
}
