package board

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

func TestInsertAt(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		target    int
		wantPos   int
		wantShift Span
		wantErr   bool
	}{
		{"append into empty scope", 0, Append, 1, Span{Lo: 1, Hi: 0, Delta: +1}, false},
		{"append defaults to n+1", 3, Append, 4, Span{Lo: 4, Hi: 3, Delta: +1}, false},
		{"explicit head insert", 3, 1, 1, Span{Lo: 1, Hi: 3, Delta: +1}, false},
		{"explicit middle insert", 3, 2, 2, Span{Lo: 2, Hi: 3, Delta: +1}, false},
		{"explicit tail insert", 3, 4, 4, Span{Lo: 4, Hi: 3, Delta: +1}, false},
		{"zero-width scope rejects 2", 0, 2, 0, Span{}, true},
		{"target below range", 3, -1, 0, Span{}, true},
		{"target beyond n+1", 3, 5, 0, Span{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, span, err := InsertAt(tt.n, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, faults.IsOutOfRange(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantShift, span)
		})
	}
}

func TestMoveWithin(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		current   int
		target    int
		wantShift Span
		wantErr   bool
	}{
		{"no-op move", 5, 3, 3, Span{Lo: 1, Hi: 0}, false},
		{"move forward", 5, 2, 4, Span{Lo: 3, Hi: 4, Delta: -1}, false},
		{"move backward", 5, 4, 2, Span{Lo: 2, Hi: 3, Delta: +1}, false},
		{"move to head", 5, 5, 1, Span{Lo: 1, Hi: 4, Delta: +1}, false},
		{"move to tail", 5, 1, 5, Span{Lo: 2, Hi: 5, Delta: -1}, false},
		{"target past n", 5, 1, 6, Span{}, true},
		{"target zero", 5, 1, 0, Span{}, true},
		{"current out of range", 5, 6, 1, Span{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := MoveWithin(tt.n, tt.current, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, faults.IsOutOfRange(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantShift, span)
		})
	}
}

func TestRemoveAt(t *testing.T) {
	span, err := RemoveAt(4, 2)
	require.NoError(t, err)
	assert.Equal(t, Span{Lo: 3, Hi: 4, Delta: -1}, span)

	_, err = RemoveAt(4, 5)
	assert.True(t, faults.IsOutOfRange(err))
	_, err = RemoveAt(0, 1)
	assert.True(t, faults.IsOutOfRange(err))
}

func TestMoveNoOpLeavesPositionsUntouched(t *testing.T) {
	span, err := MoveWithin(7, 4, 4)
	require.NoError(t, err)
	assert.True(t, span.Empty())
	for p := 1; p <= 7; p++ {
		assert.Equal(t, p, span.Apply(p))
	}
}

// scope is an in-memory projection of one parent's sibling positions, used
// to drive the sequencer the way the repositories do.
type scope struct {
	positions map[int]int // entity id -> position
	nextID    int
}

func newScope() *scope { return &scope{positions: map[int]int{}, nextID: 1} }

func (s *scope) insert(t *testing.T, target int) int {
	t.Helper()
	pos, span, err := InsertAt(len(s.positions), target)
	require.NoError(t, err)
	for id, p := range s.positions {
		s.positions[id] = span.Apply(p)
	}
	id := s.nextID
	s.nextID++
	s.positions[id] = pos
	return id
}

func (s *scope) move(t *testing.T, id, target int) {
	t.Helper()
	span, err := MoveWithin(len(s.positions), s.positions[id], target)
	require.NoError(t, err)
	current := s.positions[id]
	for other, p := range s.positions {
		if other != id {
			s.positions[other] = span.Apply(p)
		}
	}
	if !span.Empty() || target != current {
		s.positions[id] = target
	}
}

func (s *scope) remove(t *testing.T, id int) {
	t.Helper()
	span, err := RemoveAt(len(s.positions), s.positions[id])
	require.NoError(t, err)
	delete(s.positions, id)
	for other, p := range s.positions {
		s.positions[other] = span.Apply(p)
	}
}

func (s *scope) assertDense(t *testing.T) {
	t.Helper()
	got := make([]int, 0, len(s.positions))
	for _, p := range s.positions {
		got = append(got, p)
	}
	sort.Ints(got)
	for i, p := range got {
		require.Equal(t, i+1, p, "positions must be exactly 1..N, got %v", got)
	}
}

func TestOrdinalDensityUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newScope()
	ids := []int{}

	for i := 0; i < 500; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			target := Append
			if len(ids) > 0 && rng.Intn(2) == 0 {
				target = 1 + rng.Intn(len(ids)+1)
			}
			ids = append(ids, s.insert(t, target))
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			s.move(t, id, 1+rng.Intn(len(ids)))
		default:
			j := rng.Intn(len(ids))
			s.remove(t, ids[j])
			ids = append(ids[:j], ids[j+1:]...)
		}
		s.assertDense(t)
	}
}

func TestInsertThenRemoveRestoresSiblings(t *testing.T) {
	s := newScope()
	for i := 0; i < 5; i++ {
		s.insert(t, Append)
	}
	before := make(map[int]int, len(s.positions))
	for id, p := range s.positions {
		before[id] = p
	}

	id := s.insert(t, 3)
	s.remove(t, id)

	assert.Equal(t, before, s.positions)
}
