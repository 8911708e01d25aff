// Package random provides the randomness source used for spy assignment,
// location selection, and join-code generation. The Source interface exists
// so tests can substitute a deterministic implementation.
package random

import (
	"crypto/rand"
	"math/big"
)

// Source produces uniformly distributed integers.
type Source interface {
	// Intn returns a value in [0, n). Implementations panic when n <= 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: all values produced are uniformly distributed in [0, n) for any
// n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "random: Intn called with n <= 0" if n <= 0.
// Panics with "random: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("random: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}
