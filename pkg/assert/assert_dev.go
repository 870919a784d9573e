//go:build !release

package assert

import "fmt"

// That panics with a formatted message when the condition doesn't hold. These checks guard
// internal invariants only and compile to no-ops in release builds.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
