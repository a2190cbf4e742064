//go:build !release

package assert

import "fmt"

// That panics with the formatted message when cond is false. Used for internal invariants that
// indicate a programming error inside this module, never for caller input.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
