package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeGenerator returns a numeric code with exactly length digits.
type CodeGenerator func(length int) (int, error)

// RandomCode draws from crypto/rand. The first digit is never zero so the
// code survives a round trip through an integer.
func RandomCode(length int) (int, error) {
	if length < 1 || length > 9 {
		return 0, fmt.Errorf("code length %d out of range", length)
	}
	low := int64(1)
	for i := 1; i < length; i++ {
		low *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*low))
	if err != nil {
		return 0, err
	}
	return int(n.Int64() + low), nil
}
