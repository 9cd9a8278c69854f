package dice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tariel36/rpncalc/internal/expression"
)

var (
	_ expression.DiceRoller = (*Service)(nil)
	_ expression.DiceRoller = (*SequenceRoller)(nil)
	_ expression.DiceRoller = (*FixedRoller)(nil)
)

func TestDefinition_String(t *testing.T) {
	assert.Equal(t, "1d6", Definition{Sides: 6}.String())
	assert.Equal(t, "1d6+2", Definition{Sides: 6, Modifier: 2}.String())
	assert.Equal(t, "1d6-2", Definition{Sides: 6, Modifier: -2}.String())
}

func TestParseNotation(t *testing.T) {
	tests := []struct {
		input    string
		expected Notation
	}{
		{"3d6", Notation{Count: 3, Sides: 6}},
		{"d20", Notation{Count: 1, Sides: 20}},
		{"2d8+3", Notation{Count: 2, Sides: 8, Modifier: 3}},
		{" 4D6-1 ", Notation{Count: 4, Sides: 6, Modifier: -1}},
		{"0d6", Notation{Count: 0, Sides: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseNotation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}

	for _, bad := range []string{"", "d", "3d", "3x6", "3d6+", "1+2", "2d6*2"} {
		_, err := ParseNotation(bad)
		assert.ErrorIs(t, err, ErrInvalidNotation, bad)
	}
}

func TestNotation_StringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := Notation{
			Count:    rapid.IntRange(0, 100).Draw(t, "count"),
			Sides:    rapid.IntRange(1, 1000).Draw(t, "sides"),
			Modifier: rapid.IntRange(-50, 50).Draw(t, "modifier"),
		}
		parsed, err := ParseNotation(n.String())
		if err != nil {
			t.Fatalf("parse %q: %v", n.String(), err)
		}
		if parsed != n {
			t.Fatalf("round trip %q: got %+v", n.String(), parsed)
		}
	})
}

func TestLimits_Check(t *testing.T) {
	l := Limits{MaxCount: 10, MaxSides: 100}

	assert.NoError(t, l.Check(0, 6))
	assert.NoError(t, l.Check(10, 100))
	assert.ErrorIs(t, l.Check(-1, 6), ErrInvalidCount)
	assert.ErrorIs(t, l.Check(1, 0), ErrInvalidSides)
	assert.ErrorIs(t, l.Check(11, 6), ErrLimitExceeded)
	assert.ErrorIs(t, l.Check(1, 101), ErrLimitExceeded)
	assert.NoError(t, Limits{}.Check(1_000_000, 1_000_000))
}

func TestService_RollRange(t *testing.T) {
	s := NewService(WithProvider(NewSeededProvider(42)))

	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 20).Draw(t, "count")
		sides := rapid.IntRange(1, 100).Draw(t, "sides")

		faces, err := s.Roll(count, sides)
		if err != nil {
			t.Fatalf("roll %dd%d: %v", count, sides, err)
		}
		if len(faces) != count {
			t.Fatalf("got %d faces, want %d", len(faces), count)
		}
		for _, f := range faces {
			if f < 1 || f > sides {
				t.Fatalf("face %d outside [1, %d]", f, sides)
			}
		}
	})
}

func TestService_SeedIsReproducible(t *testing.T) {
	a := NewService(WithProvider(NewSeededProvider(7)))
	b := NewService(WithProvider(NewSeededProvider(7)))

	fa, err := a.Roll(10, 20)
	require.NoError(t, err)
	fb, err := b.Roll(10, 20)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestService_Limits(t *testing.T) {
	s := NewService(WithLimits(Limits{MaxCount: 5, MaxSides: 20}))

	_, err := s.Roll(6, 6)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	_, err = s.RollDie(21)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	_, err = s.Roll(1, 0)
	assert.ErrorIs(t, err, ErrInvalidSides)

	faces, err := s.Roll(0, 6)
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestService_SequenceProvider(t *testing.T) {
	s := NewService(WithProvider(NewSequenceProvider(SequenceStop, 1, 2, 3)))

	v, err := s.Roll20()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	faces, err := s.Roll(2, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, faces)

	_, err = s.RollDie(6)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestSequenceProvider_Modes(t *testing.T) {
	wrap := NewSequenceProvider(SequenceWrap, 1, 2)
	last := NewSequenceProvider(SequenceRepeatLast, 1, 2)

	var gotWrap, gotLast []int
	for i := 0; i < 5; i++ {
		v, err := wrap.Next(0, 10)
		require.NoError(t, err)
		gotWrap = append(gotWrap, v)

		v, err = last.Next(0, 10)
		require.NoError(t, err)
		gotLast = append(gotLast, v)
	}
	assert.Equal(t, []int{1, 2, 1, 2, 1}, gotWrap)
	assert.Equal(t, []int{1, 2, 2, 2, 2}, gotLast)

	wrap.Reset()
	v, err := wrap.Next(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = NewSequenceProvider(SequenceWrap).Next(0, 1)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestService_NextN(t *testing.T) {
	s := NewService(WithProvider(NewSeededProvider(1)))

	for i := 0; i < 100; i++ {
		v, err := s.NextN(5, 8)
		require.NoError(t, err)
		assert.True(t, v >= 5 && v < 8, "value %d", v)
	}

	_, err := s.NextN(3, 3)
	assert.ErrorIs(t, err, ErrInvalidRange)

	v, err := s.Next()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0)
}

func TestCryptoProvider(t *testing.T) {
	s := NewService(WithProvider(NewCryptoProvider()))
	for i := 0; i < 50; i++ {
		v, err := s.RollDie(6)
		require.NoError(t, err)
		assert.True(t, v >= 1 && v <= 6)
	}
	_, err := NewCryptoProvider().Next(2, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestService_RollDefinitions(t *testing.T) {
	s := NewService(WithProvider(NewSequenceProvider(SequenceWrap, 4, 5)))

	results, err := s.RollDefinitions(Definition{Sides: 6, Modifier: 2}, Definition{Sides: 8, Modifier: -1})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 4}, results)

	_, err = s.RollDefinitions(Definition{Sides: 0})
	assert.ErrorIs(t, err, ErrInvalidSides)
	assert.Contains(t, err.Error(), "1d0")
}

func TestRollNotation(t *testing.T) {
	s := NewService(WithProvider(NewSequenceProvider(SequenceWrap, 3, 5, 6)))

	out, err := s.RollNotation(Notation{Count: 3, Sides: 6, Modifier: -2})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 6}, out.Faces)
	assert.Equal(t, 12, out.Total)

	_, err = RollNotation(NewFixedRoller(), Notation{Count: 1, Sides: 6})
	assert.Error(t, err)
}

func TestSequenceRoller(t *testing.T) {
	counting := NewSequenceRoller()
	faces, err := counting.Roll(3, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, faces)
	faces, err = counting.Roll(1, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, faces)

	cycling := NewSequenceRoller(6, 1)
	faces, err = cycling.Roll(3, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 1, 6}, faces)

	_, err = cycling.Roll(-1, 6)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestFixedRoller(t *testing.T) {
	r := NewFixedRoller().Set(2, 6, 1, 6)

	faces, err := r.Roll(2, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, faces)

	faces[0] = 99
	again, err := r.Roll(2, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, again)

	_, err = r.Roll(1, 20)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(Options{Provider: "sequence", Sequence: []int{2}, Limits: Limits{MaxCount: 3}})
	require.NoError(t, err)
	faces, err := s.Roll(3, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, faces)
	assert.Equal(t, 3, s.Limits().MaxCount)

	a, err := New(Options{Seed: 99})
	require.NoError(t, err)
	b, err := New(Options{Provider: "PCG", Seed: 99})
	require.NoError(t, err)
	fa, _ := a.Roll(5, 100)
	fb, _ := b.Roll(5, 100)
	assert.Equal(t, fa, fb)

	_, err = New(Options{Provider: "crypto"})
	assert.NoError(t, err)

	_, err = New(Options{Provider: "sequence"})
	assert.Error(t, err)

	_, err = New(Options{Provider: "lava-lamp"})
	assert.Error(t, err)
}

func TestService_WithEvaluator(t *testing.T) {
	roller := NewSequenceRoller()
	calc := expression.NewCalculator(nil, expression.NewEvaluator(expression.WithDiceRoller(roller)))

	result, err := calc.Evaluate("2*(2*2d6-2)-2")
	require.NoError(t, err)
	assert.Equal(t, "6", result)

	limited := NewService(WithLimits(Limits{MaxCount: 2}))
	_, err = expression.NewCalculator(nil, expression.NewEvaluator(expression.WithDiceRoller(limited))).Evaluate("3d6")
	require.Error(t, err)
	assert.True(t, errors.Is(err, expression.ErrDiceRollFailed))
	assert.True(t, errors.Is(err, ErrLimitExceeded))
}
