// Package testutils holds helpers for randomized tests. Each test gets its own generator, seeded
// from the package seed and the test name, so a failing test can be replayed alone with TEST_SEED.
package testutils

import (
	"cmp"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
)

var seed = sync.OnceValue(func() uint64 {
	if env := os.Getenv("TEST_SEED"); env != "" {
		if parsed, err := strconv.ParseUint(env, 0, 64); err == nil {
			return parsed
		}
	}
	return uint64(time.Now().UnixNano()) //nolint:gosec // any bits will do for a seed
})

// Seed returns the package seed: TEST_SEED when set, the start time otherwise.
func Seed() uint64 {
	return seed()
}

// NewRand returns a generator for t. Subtests draw different sequences from the same seed.
func NewRand(t *testing.T) *rand.Rand {
	t.Helper()
	s := Seed()
	t.Logf("to reproduce: TEST_SEED=0x%x go test -run '^%s$'", s, t.Name())
	return rand.New(rand.NewPCG(s, xxhash.Sum64String(t.Name()))) //nolint:gosec // tests only
}

// RandMapKey returns a random key of m. Keys are sorted before picking so the choice depends on
// the generator alone, not on map iteration order. Panics if m is empty.
func RandMapKey[K cmp.Ordered, V any](r *rand.Rand, m map[K]V) K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return RandElem(r, keys)
}

// RandElem returns a random element of s. Panics if s is empty.
func RandElem[T any](r *rand.Rand, s []T) T {
	return s[r.IntN(len(s))]
}

// Weighted pairs a choice with its relative weight.
type Weighted[T any] struct {
	Value  T
	Weight int
}

// RandWeighted picks one of choices with probability proportional to its weight. Panics if the
// weights do not sum to a positive number.
func RandWeighted[T any](r *rand.Rand, choices []Weighted[T]) T {
	total := 0
	for _, c := range choices {
		total += c.Weight
	}
	pick := r.IntN(total)
	for _, c := range choices {
		if pick < c.Weight {
			return c.Value
		}
		pick -= c.Weight
	}
	panic("unreachable")
}
