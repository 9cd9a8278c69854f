package dice

import (
	"fmt"
	"sync"
)

// SequenceRoller returns faces from a fixed list, wrapping around, regardless
// of the number of sides. With no faces it counts up from 1.
type SequenceRoller struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewSequenceRoller creates a SequenceRoller.
func NewSequenceRoller(faces ...int) *SequenceRoller {
	return &SequenceRoller{faces: append([]int(nil), faces...)}
}

// Roll implements Roller.
func (r *SequenceRoller) Roll(count, sides int) ([]int, error) {
	if err := (Limits{}).Check(count, sides); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, count)
	for i := range out {
		if len(r.faces) == 0 {
			r.next++
			out[i] = r.next
			continue
		}
		out[i] = r.faces[r.next%len(r.faces)]
		r.next++
	}
	return out, nil
}

// FixedRoller returns canned faces for each count and sides pair.
type FixedRoller struct {
	mu      sync.RWMutex
	results map[string][]int
}

// NewFixedRoller creates an empty FixedRoller.
func NewFixedRoller() *FixedRoller {
	return &FixedRoller{results: make(map[string][]int)}
}

// Set registers the faces returned for count dice of sides sides.
func (r *FixedRoller) Set(count, sides int, faces ...int) *FixedRoller {
	r.mu.Lock()
	r.results[fixedKey(count, sides)] = append([]int(nil), faces...)
	r.mu.Unlock()
	return r
}

// Roll implements Roller.
func (r *FixedRoller) Roll(count, sides int) ([]int, error) {
	r.mu.RLock()
	faces, ok := r.results[fixedKey(count, sides)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no result registered for %dd%d", count, sides)
	}
	return append([]int(nil), faces...), nil
}

func fixedKey(count, sides int) string {
	return fmt.Sprintf("%dd%d", count, sides)
}
