//go:build !linux

package url

import (
	"testing"
)

// environmentCheck always passes where socket tables are not readable.
func environmentCheck(_ string, _ testing.TB) bool {
	return true
}
