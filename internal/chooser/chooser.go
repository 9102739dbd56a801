// Package chooser maintains the team turn order used by turn-based
// questions.
package chooser

import (
	"math/rand/v2"
	"slices"

	"github.com/dom/trivia-night/internal/domain"
)

// Shuffler permutes n elements through swap. rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// Rotation applies the turn-order operations to a ChooserState. It only owns
// the randomness source.
type Rotation struct {
	shuffle Shuffler
}

func New(shuffle Shuffler) *Rotation {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Rotation{shuffle: shuffle}
}

// Shuffle permutes ids in place.
func (r *Rotation) Shuffle(ids []string) {
	r.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// Reset stores a shuffled permutation of teamIDs and points at its head.
func (r *Rotation) Reset(s *domain.ChooserState, teamIDs []string) {
	order := slices.Clone(teamIDs)
	r.Shuffle(order)
	s.Order = order
	s.Index = 0
}

// RebuildFromRanking concatenates the groups in the given order, shuffling
// each group, and points at the head. Callers pass the worst group first.
func (r *Rotation) RebuildFromRanking(s *domain.ChooserState, groups [][]string) {
	order := make([]string, 0, len(s.Order))
	for _, g := range groups {
		group := slices.Clone(g)
		r.Shuffle(group)
		order = append(order, group...)
	}
	s.Order = order
	s.Index = 0
}

// Current returns the team at the cursor.
func Current(s *domain.ChooserState) (string, bool) {
	if len(s.Order) == 0 {
		return "", false
	}
	return s.Order[s.Index], true
}

// Advance moves the cursor one step, wrapping around, and returns the new
// current team.
func Advance(s *domain.ChooserState) string {
	if len(s.Order) == 0 {
		s.Index = 0
		return ""
	}
	s.Index = (s.Index + 1) % len(s.Order)
	return s.Order[s.Index]
}

// MoveToHead reinserts teamID at position 0 and points the cursor at it.
func MoveToHead(s *domain.ChooserState, teamID string) {
	i := slices.Index(s.Order, teamID)
	if i < 0 {
		return
	}
	s.Order = slices.Delete(s.Order, i, i+1)
	s.Order = slices.Insert(s.Order, 0, teamID)
	s.Index = 0
}

// ResetIndex points the cursor at the head of the order.
func ResetIndex(s *domain.ChooserState) {
	s.Index = 0
}

// IsChooser reports whether teamID holds the turn.
func IsChooser(s *domain.ChooserState, teamID string) bool {
	cur, ok := Current(s)
	return ok && cur == teamID
}
