package randutil

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

// Uint64 returns a random non-zero 64-bit value as a uint64
func Uint64() (uint64, error) {
	bytes := make([]byte, 8)

	for {
		_, err := rand.Read(bytes)
		if err != nil {
			return 0, errors.WithMessage(err, "read rand bytes")
		}

		result, err := typeutil.BytesToUint64(bytes)
		if err != nil {
			return 0, errors.WithMessage(err, "convert bytes to uint64")
		}
		if result != 0 {
			return result, nil
		}
	}
}

// Digits returns a random string of n decimal digits, leading zeros included.
// n must be in [1, 18].
func Digits(n int) (string, error) {
	if n < 1 || n > 18 {
		return "", errors.Errorf("invalid number of digits %d", n)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", errors.WithMessage(err, "read rand int")
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
