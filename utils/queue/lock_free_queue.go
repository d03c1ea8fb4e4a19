package queue

import (
	"sync/atomic"
	"unsafe"
)

// Queue is a lock-free MPMC queue (Michael & Scott).
type Queue[T any] struct {
	head   unsafe.Pointer
	tail   unsafe.Pointer
	length int32
}

type node[T any] struct {
	value T
	next  unsafe.Pointer
}

func New[T any]() *Queue[T] {
	n := unsafe.Pointer(&node[T]{})
	return &Queue[T]{head: n, tail: n}
}

func (that *Queue[T]) Enqueue(v T) {
	n := &node[T]{value: v}
	for {
		tail := load[T](&that.tail)
		next := load[T](&tail.next)

		if tail == load[T](&that.tail) {
			if next == nil {
				if cas(&tail.next, next, n) {
					cas(&that.tail, tail, n)
					atomic.AddInt32(&that.length, 1)
					return
				}
			} else {
				cas(&that.tail, tail, next)
			}
		}
	}
}

// Dequeue returns false when the queue is empty.
func (that *Queue[T]) Dequeue() (v T, ok bool) {
	for {
		head := load[T](&that.head)
		tail := load[T](&that.tail)
		next := load[T](&head.next)
		if head == load[T](&that.head) {
			if head == tail {
				if next == nil {
					return v, false
				}
				cas(&that.tail, tail, next)
			} else {
				v = next.value // the first node is a sentinel.
				if cas(&that.head, head, next) {
					atomic.AddInt32(&that.length, -1)
					return v, true
				}
			}
		}
	}
}

func (that *Queue[T]) IsEmpty() bool {
	return atomic.LoadInt32(&that.length) == 0
}

func (that *Queue[T]) Len() int {
	return int(atomic.LoadInt32(&that.length))
}

func load[T any](p *unsafe.Pointer) *node[T] {
	return (*node[T])(atomic.LoadPointer(p))
}

func cas[T any](p *unsafe.Pointer, old, new *node[T]) bool {
	return atomic.CompareAndSwapPointer(p, unsafe.Pointer(old), unsafe.Pointer(new))
}
