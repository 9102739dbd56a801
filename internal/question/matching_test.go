package question_test

import (
	"slices"
	"testing"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchingGame(t *testing.T) *testutil.GameFixture {
	t.Helper()
	q := &domain.Question{
		ID:   "q1",
		Type: domain.RoundTypeMatching,
		Matching: &domain.MatchingDetails{Answer: [][]string{
			{"Paris", "France", "Euro"},
			{"Tokyo", "Japan", "Yen"},
			{"London", "United Kingdom", "Pound"},
		}},
	}
	return testutil.NewGameBuilder().
		WithRound(domain.Round{Type: domain.RoundTypeMatching, MistakePenalty: 1}).
		WithQuestions(q).
		Open().
		Build(t, store.NewMemory())
}

// pathFor builds the edges linking the displayed items of rows[col] in each
// column.
func pathFor(st *domain.MatchingState, rows ...int) []domain.MatchEdge {
	nodes := make([]domain.MatchNode, len(rows))
	for col, row := range rows {
		nodes[col] = domain.MatchNode{Col: col, Pos: slices.Index(st.Shuffled[col], row)}
	}
	edges := make([]domain.MatchEdge, 0, len(rows)-1)
	for i := 0; i+1 < len(nodes); i++ {
		edges = append(edges, domain.MatchEdge{From: nodes[i], To: nodes[i+1]})
	}
	return edges
}

func submit(t *testing.T, f *testutil.GameFixture, playerID string, rows ...int) error {
	t.Helper()
	edges := pathFor(f.State(t).Matching, rows...)
	return f.Act(t, func(c *question.Context) error { return question.Matching{}.SubmitPath(c, playerID, edges) })
}

func TestNormalizePath(t *testing.T) {
	node := func(col, pos int) domain.MatchNode { return domain.MatchNode{Col: col, Pos: pos} }

	tests := []struct {
		name    string
		edges   []domain.MatchEdge
		want    []int
		wantErr bool
	}{
		{
			name:  "ordered",
			edges: []domain.MatchEdge{{From: node(0, 2), To: node(1, 0)}, {From: node(1, 0), To: node(2, 1)}},
			want:  []int{2, 0, 1},
		},
		{
			name:  "reversed and unordered",
			edges: []domain.MatchEdge{{From: node(2, 1), To: node(1, 0)}, {From: node(1, 0), To: node(0, 2)}},
			want:  []int{2, 0, 1},
		},
		{
			name:    "too few edges",
			edges:   []domain.MatchEdge{{From: node(0, 2), To: node(1, 0)}},
			wantErr: true,
		},
		{
			name:    "broken chain",
			edges:   []domain.MatchEdge{{From: node(0, 2), To: node(1, 0)}, {From: node(1, 1), To: node(2, 1)}},
			wantErr: true,
		},
		{
			name:    "skips a column",
			edges:   []domain.MatchEdge{{From: node(0, 2), To: node(2, 0)}, {From: node(1, 1), To: node(2, 1)}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := question.NormalizePath(tt.edges, 3)
			if tt.wantErr {
				assert.True(t, domain.IsIllegalChoice(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLongestRun(t *testing.T) {
	tests := []struct {
		rows              []int
		wantStart, wantLn int
	}{
		{rows: nil, wantStart: 0, wantLn: 0},
		{rows: []int{1, 2, 3}, wantStart: 0, wantLn: 1},
		{rows: []int{1, 1, 2}, wantStart: 0, wantLn: 2},
		{rows: []int{1, 2, 2, 2}, wantStart: 1, wantLn: 3},
		{rows: []int{4, 4, 0, 0, 0, 4}, wantStart: 2, wantLn: 3},
	}
	for _, tt := range tests {
		start, length := question.LongestRun(tt.rows)
		assert.Equal(t, tt.wantStart, start, "rows %v", tt.rows)
		assert.Equal(t, tt.wantLn, length, "rows %v", tt.rows)
	}
}

func TestMatching_ResetShufflesEveryColumn(t *testing.T) {
	f := matchingGame(t)

	st := f.State(t).Matching
	require.Len(t, st.Shuffled, 3)
	for _, col := range st.Shuffled {
		sorted := slices.Clone(col)
		slices.Sort(sorted)
		assert.Equal(t, []int{0, 1, 2}, sorted)
	}
}

func TestMatching_CorrectPathPassesTurn(t *testing.T) {
	f := matchingGame(t)

	require.NoError(t, submit(t, f, "a1", 1, 1, 1))

	st := f.State(t).Matching
	require.Len(t, st.Correct, 1)
	assert.Equal(t, 1, st.Correct[0].Row)
	assert.Equal(t, "A", st.Correct[0].TeamID)
	assert.Equal(t, 1, f.Chooser(t).Index)
	assert.Equal(t, domain.PlayerStatusFocus, f.Roster(t).Players["b1"].Status)
	assert.Equal(t, domain.GameStatusQuestionActive, f.Game(t).Status)
}

func TestMatching_OnlyChooserSubmits(t *testing.T) {
	f := matchingGame(t)

	err := submit(t, f, "b1", 0, 0, 0)

	assert.True(t, domain.IsInvalidAction(err))
}

func TestMatching_FoundRowCannotBeReused(t *testing.T) {
	f := matchingGame(t)
	require.NoError(t, submit(t, f, "a1", 0, 0, 0))

	err := submit(t, f, "b1", 0, 1, 1)

	assert.True(t, domain.IsIllegalChoice(err))
}

func TestMatching_WrongPathRecordsPartialMatch(t *testing.T) {
	f := matchingGame(t)

	require.NoError(t, submit(t, f, "a1", 2, 0, 0))

	st := f.State(t).Matching
	require.Len(t, st.Incorrect, 1)
	require.NotNil(t, st.Incorrect[0].Partial)
	assert.Equal(t, domain.PartialMatch{StartCol: 1, Length: 2}, *st.Incorrect[0].Partial)
	assert.Equal(t, 1, f.RoundScores(t).Scores["A"])
	assert.Equal(t, "B", f.Chooser(t).Order[f.Chooser(t).Index])
	assert.Equal(t, []string{domain.SoundWrong}, f.Sounds(t))
}

func TestMatching_LastRowEndsAndReordersChooser(t *testing.T) {
	f := matchingGame(t)

	require.NoError(t, submit(t, f, "a1", 0, 0, 0))
	require.NoError(t, submit(t, f, "b1", 1, 2, 1))
	require.NoError(t, submit(t, f, "c1", 1, 1, 1))
	require.NoError(t, submit(t, f, "a1", 2, 2, 2))

	assert.Equal(t, domain.GameStatusQuestionEnd, f.Game(t).Status)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 0}, f.RoundScores(t).Scores)

	cs := f.Chooser(t)
	assert.Equal(t, []string{"B", "A", "C"}, cs.Order)
	assert.Equal(t, 0, cs.Index)
	for _, p := range f.Roster(t).Players {
		assert.Equal(t, domain.PlayerStatusIdle, p.Status)
	}
}

func TestMatching_HandleCountdownExpiry(t *testing.T) {
	f := matchingGame(t)

	require.NoError(t, f.Act(t, question.HandleCountdownExpiry))

	st := f.State(t).Matching
	require.Len(t, st.Incorrect, 1)
	assert.Equal(t, "A", st.Incorrect[0].TeamID)
	assert.Nil(t, st.Incorrect[0].Partial)
	assert.Equal(t, 1, f.RoundScores(t).Scores["A"])
	assert.Equal(t, 1, f.Chooser(t).Index)
}
