package randutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	seen := make(map[uint64]struct{})
	for i := 0; i < 16; i++ {
		result, err := Uint64()
		re.NoError(err)
		re.NotZero(result)
		seen[result] = struct{}{}
	}
	re.Len(seen, 16)
}

func TestDigits(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	for _, n := range []int{1, 6, 18} {
		for i := 0; i < 16; i++ {
			digits, err := Digits(n)
			re.NoError(err)
			re.Regexp(fmt.Sprintf(`^[0-9]{%d}$`, n), digits)
		}
	}

	_, err := Digits(0)
	re.Error(err)
	_, err = Digits(19)
	re.Error(err)
}
