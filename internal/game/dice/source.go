package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics if n <= 0 or if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource is a reproducible Source used for replays and tests.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source; equal seeds yield equal sequences.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// FixedSource replays a scripted sequence of values, each reduced modulo n.
// Once the sequence is exhausted it starts again from the beginning.
type FixedSource struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewFixedSource returns a FixedSource that yields values in order.
//
// Precondition: values is non-empty and every value is >= 0.
func NewFixedSource(values ...int) *FixedSource {
	if len(values) == 0 {
		values = []int{0}
	}
	return &FixedSource{values: values}
}

// Intn returns the next scripted value modulo n.
func (f *FixedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.next%len(f.values)]
	f.next++
	return v % n
}
