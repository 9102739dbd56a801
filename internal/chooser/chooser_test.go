package chooser_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(int, func(i, j int)) {}

// reverse is a deterministic shuffle that flips the slice.
func reverse(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestReset(t *testing.T) {
	r := chooser.New(reverse)
	s := &domain.ChooserState{Index: 2}

	r.Reset(s, []string{"a", "b", "c"})

	assert.Equal(t, []string{"c", "b", "a"}, s.Order)
	assert.Equal(t, 0, s.Index)
}

func TestReset_IsPermutation(t *testing.T) {
	r := chooser.New(rand.Shuffle)
	teams := []string{"a", "b", "c", "d", "e"}
	s := &domain.ChooserState{}

	r.Reset(s, teams)

	got := slices.Clone(s.Order)
	slices.Sort(got)
	assert.Equal(t, teams, got)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, teams, "input must not be mutated")
}

func TestAdvance_CyclesBackToStart(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		order := make([]string, n)
		for i := range order {
			order[i] = string(rune('a' + i))
		}
		for start := 0; start < n; start++ {
			s := &domain.ChooserState{Order: order, Index: start}
			first, _ := chooser.Current(s)

			var last string
			for i := 0; i < n; i++ {
				last = chooser.Advance(s)
				require.GreaterOrEqual(t, s.Index, 0)
				require.Less(t, s.Index, n)
			}

			assert.Equal(t, first, last)
		}
	}
}

func TestAdvance_Empty(t *testing.T) {
	s := &domain.ChooserState{}

	assert.Equal(t, "", chooser.Advance(s))
	assert.Equal(t, 0, s.Index)

	_, ok := chooser.Current(s)
	assert.False(t, ok)
}

func TestMoveToHead(t *testing.T) {
	tests := []struct {
		name     string
		order    []string
		team     string
		expected []string
	}{
		{"middle", []string{"a", "b", "c"}, "b", []string{"b", "a", "c"}},
		{"last", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
		{"already head", []string{"a", "b", "c"}, "a", []string{"a", "b", "c"}},
		{"unknown team", []string{"a", "b"}, "z", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.ChooserState{Order: slices.Clone(tt.order), Index: 1}

			chooser.MoveToHead(s, tt.team)

			assert.Equal(t, tt.expected, s.Order)
			if tt.team != "z" {
				assert.True(t, chooser.IsChooser(s, tt.team))
			}
		})
	}
}

func TestRebuildFromRanking(t *testing.T) {
	r := chooser.New(identity)
	s := &domain.ChooserState{Order: []string{"A", "B", "C"}, Index: 2}

	// Worst group first.
	r.RebuildFromRanking(s, [][]string{{"B", "C"}, {"A"}})

	assert.Equal(t, []string{"B", "C", "A"}, s.Order)
	assert.Equal(t, 0, s.Index)
}

func TestRebuildFromRanking_ShufflesWithinGroupsOnly(t *testing.T) {
	r := chooser.New(rand.Shuffle)
	s := &domain.ChooserState{}

	for i := 0; i < 20; i++ {
		r.RebuildFromRanking(s, [][]string{{"B", "C"}, {"A"}})

		head := slices.Clone(s.Order[:2])
		slices.Sort(head)
		assert.Equal(t, []string{"B", "C"}, head)
		assert.Equal(t, "A", s.Order[2])
	}
}
