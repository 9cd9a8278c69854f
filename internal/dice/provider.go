// Package dice provides random number providers and dice rolling services.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sync"
)

// Provider yields integers in the half-open range [min, max).
type Provider interface {
	Next(min, max int) (int, error)
}

// ErrSequenceExhausted is returned by a SequenceProvider in SequenceStop mode once
// every value has been handed out.
var ErrSequenceExhausted = errors.New("no more elements in sequence")

// ErrInvalidRange is returned when max <= min.
var ErrInvalidRange = errors.New("invalid range")

func checkRange(min, max int) error {
	if max <= min {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, min, max)
	}
	return nil
}

// PCGProvider draws from a math/rand/v2 PCG source.
type PCGProvider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededProvider returns a reproducible provider for the given seed.
func NewSeededProvider(seed uint64) *PCGProvider {
	return &PCGProvider{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomProvider returns a PCG provider seeded from the operating system.
func NewRandomProvider() *PCGProvider {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return NewSeededProvider(rand.Uint64())
	}
	return NewSeededProvider(binary.LittleEndian.Uint64(buf[:]))
}

// Next implements Provider.
func (p *PCGProvider) Next(min, max int) (int, error) {
	if err := checkRange(min, max); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return min + p.rnd.IntN(max-min), nil
}

// CryptoProvider draws from crypto/rand.
type CryptoProvider struct{}

// NewCryptoProvider returns a provider backed by the operating system CSPRNG.
func NewCryptoProvider() CryptoProvider {
	return CryptoProvider{}
}

// Next implements Provider.
func (CryptoProvider) Next(min, max int) (int, error) {
	if err := checkRange(min, max); err != nil {
		return 0, err
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(max-min)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return min + int(n.Int64()), nil
}

// SequenceMode controls what a SequenceProvider does past the last value.
type SequenceMode int

const (
	// SequenceStop fails with ErrSequenceExhausted.
	SequenceStop SequenceMode = iota
	// SequenceWrap starts again from the first value.
	SequenceWrap
	// SequenceRepeatLast keeps returning the last value.
	SequenceRepeatLast
)

// SequenceProvider hands out a fixed list of values in order, ignoring the
// requested range. It is meant for reproducible runs and tests.
type SequenceProvider struct {
	mu     sync.Mutex
	values []int
	index  int
	mode   SequenceMode
}

// NewSequenceProvider creates a provider over values.
func NewSequenceProvider(mode SequenceMode, values ...int) *SequenceProvider {
	return &SequenceProvider{
		values: append([]int(nil), values...),
		mode:   mode,
	}
}

// Next implements Provider.
func (p *SequenceProvider) Next(min, max int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.values) == 0 {
		return 0, ErrSequenceExhausted
	}

	if p.index < len(p.values) {
		v := p.values[p.index]
		p.index++
		return v, nil
	}

	switch p.mode {
	case SequenceWrap:
		p.index = 1
		return p.values[0], nil
	case SequenceRepeatLast:
		return p.values[len(p.values)-1], nil
	default:
		return 0, ErrSequenceExhausted
	}
}

// Reset rewinds the provider to the first value.
func (p *SequenceProvider) Reset() {
	p.mu.Lock()
	p.index = 0
	p.mu.Unlock()
}
