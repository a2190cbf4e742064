// Package idalloc provides entity ID allocators. An allocator is handed to the entity manager as a
// plain func() ID; the zero value of ID is the null ID and is never handed out on success.
package idalloc

import (
	"github.com/google/uuid"
)

// Integer is the set of ID types a Sequential allocator can count with.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// Sequential hands out 1, 2, 3, ... IDs are not recycled.
type Sequential[T Integer] struct {
	last T
}

func NewSequential[T Integer]() *Sequential[T] {
	return &Sequential[T]{}
}

// StartAfter makes the next ID last+1. Used when IDs below last are already taken, for example
// after restoring a snapshot.
func (s *Sequential[T]) StartAfter(last T) {
	s.last = last
}

func (s *Sequential[T]) Next() T {
	s.last++
	return s.last
}

// UUID returns a random (version 4) UUID.
func UUID() uuid.UUID {
	return uuid.New()
}

// UUIDString returns a random UUID in its canonical string form.
func UUIDString() string {
	return uuid.NewString()
}
