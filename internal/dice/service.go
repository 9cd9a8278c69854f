package dice

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidCount is returned for a negative dice count.
	ErrInvalidCount = errors.New("dice count must not be negative")
	// ErrInvalidSides is returned for dice with fewer than one side.
	ErrInvalidSides = errors.New("dice must have at least one side")
	// ErrLimitExceeded is returned when a roll exceeds the configured limits.
	ErrLimitExceeded = errors.New("dice limit exceeded")
)

// Limits bounds the size of a single roll. Zero means unlimited.
type Limits struct {
	MaxCount int `json:"max_count" yaml:"max_count"`
	MaxSides int `json:"max_sides" yaml:"max_sides"`
}

// Check validates count and sides against the limits.
func (l Limits) Check(count, sides int) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if sides < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSides, sides)
	}
	if l.MaxCount > 0 && count > l.MaxCount {
		return fmt.Errorf("%w: %d dice, maximum is %d", ErrLimitExceeded, count, l.MaxCount)
	}
	if l.MaxSides > 0 && sides > l.MaxSides {
		return fmt.Errorf("%w: %d sides, maximum is %d", ErrLimitExceeded, sides, l.MaxSides)
	}
	return nil
}

// Roller rolls count dice with the given number of sides.
type Roller interface {
	Roll(count, sides int) ([]int, error)
}

// Service rolls dice using a Provider.
type Service struct {
	provider Provider
	limits   Limits
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProvider sets the random provider.
func WithProvider(p Provider) ServiceOption {
	return func(s *Service) {
		s.provider = p
	}
}

// WithLimits sets the roll limits.
func WithLimits(l Limits) ServiceOption {
	return func(s *Service) {
		s.limits = l
	}
}

// NewService creates a Service. Without WithProvider it uses NewRandomProvider.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.provider = NewRandomProvider()
	}
	return s
}

// Limits returns the configured limits.
func (s *Service) Limits() Limits {
	return s.limits
}

// Next returns a non-negative random integer.
func (s *Service) Next() (int, error) {
	return s.provider.Next(0, math.MaxInt)
}

// NextN returns a random integer in [min, max).
func (s *Service) NextN(min, max int) (int, error) {
	return s.provider.Next(min, max)
}

// RollDie rolls one die and returns a face in [1, sides].
func (s *Service) RollDie(sides int) (int, error) {
	if err := s.limits.Check(1, sides); err != nil {
		return 0, err
	}
	return s.provider.Next(1, sides+1)
}

// Roll20 rolls a single twenty-sided die.
func (s *Service) Roll20() (int, error) {
	return s.RollDie(20)
}

// Roll rolls count dice with sides faces each.
func (s *Service) Roll(count, sides int) ([]int, error) {
	if err := s.limits.Check(count, sides); err != nil {
		return nil, err
	}
	faces := make([]int, count)
	for i := range faces {
		v, err := s.provider.Next(1, sides+1)
		if err != nil {
			return nil, err
		}
		faces[i] = v
	}
	return faces, nil
}

// RollDefinitions rolls one die per definition and adds its modifier.
func (s *Service) RollDefinitions(defs ...Definition) ([]int, error) {
	results := make([]int, 0, len(defs))
	for _, d := range defs {
		v, err := s.RollDie(d.Sides)
		if err != nil {
			return nil, fmt.Errorf("roll %s: %w", d, err)
		}
		results = append(results, v+d.Modifier)
	}
	return results, nil
}

// RollNotation rolls n and totals the faces plus the modifier.
func (s *Service) RollNotation(n Notation) (Outcome, error) {
	return RollNotation(s, n)
}

// RollNotation rolls n with any Roller.
func RollNotation(r Roller, n Notation) (Outcome, error) {
	faces, err := r.Roll(n.Count, n.Sides)
	if err != nil {
		return Outcome{}, fmt.Errorf("roll %s: %w", n, err)
	}
	total := n.Modifier
	for _, f := range faces {
		total += f
	}
	return Outcome{Notation: n, Faces: faces, Total: total}, nil
}

// Provider names accepted by Options.
const (
	ProviderPCG      = "pcg"
	ProviderCrypto   = "crypto"
	ProviderSequence = "sequence"
)

// Options selects and configures a provider by name.
type Options struct {
	Provider string
	// Seed makes the pcg provider reproducible. Zero picks a random seed.
	Seed     uint64
	Sequence []int
	Limits   Limits
}

// New builds a Service from opts.
func New(opts Options) (*Service, error) {
	var p Provider
	switch strings.ToLower(opts.Provider) {
	case "", ProviderPCG:
		if opts.Seed != 0 {
			p = NewSeededProvider(opts.Seed)
		} else {
			p = NewRandomProvider()
		}
	case ProviderCrypto:
		p = NewCryptoProvider()
	case ProviderSequence:
		if len(opts.Sequence) == 0 {
			return nil, errors.New("sequence provider requires at least one value")
		}
		p = NewSequenceProvider(SequenceWrap, opts.Sequence...)
	default:
		return nil, fmt.Errorf("unknown dice provider %q", opts.Provider)
	}
	return NewService(WithProvider(p), WithLimits(opts.Limits)), nil
}
