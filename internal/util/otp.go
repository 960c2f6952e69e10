package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateNumericOTP returns a uniformly random left-zero-padded numeric
// code of the given length, e.g. "042917" for six digits.
func GenerateNumericOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
