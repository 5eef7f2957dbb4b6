package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand/v2"
	"sync"

	"lottoledger/domain/interfaces"
)

// cryptoRandomSource draws from the operating system CSPRNG
type cryptoRandomSource struct{}

// NewCryptoRandomSource creates the production entropy source
func NewCryptoRandomSource() interfaces.RandomSource {
	return cryptoRandomSource{}
}

func (cryptoRandomSource) Int63n(_ context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("random bound must be positive, got %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return v.Int64(), nil
}

// seededRandomSource is a reproducible PCG stream for tests and replays
type seededRandomSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeededRandomSource creates a deterministic source. Draws are NOT secure.
func NewSeededRandomSource(seed uint64) interfaces.RandomSource {
	return &seededRandomSource{rng: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededRandomSource) Int63n(_ context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("random bound must be positive, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int64N(n), nil
}
