package question

import (
	"slices"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/scoring"
)

// Matching resolves grid questions: the chooser team links one item per
// column into a path that must stay on a single original row.
type Matching struct{}

func (Matching) Family() domain.Family { return domain.FamilyMatching }

// Reset shuffles the display order of every column.
func (Matching) Reset(c *Context) error {
	d := c.Question.Matching
	shuffled := make([][]int, d.NumCols())
	for col := range shuffled {
		shuffled[col] = c.Rand.Perm(d.NumRows())
	}
	c.State.Matching = &domain.MatchingState{
		Shuffled:  shuffled,
		Correct:   []domain.CorrectMatch{},
		Incorrect: []domain.IncorrectMatch{},
	}
	return nil
}

func matchingState(c *Context) (*domain.MatchingState, error) {
	if c.State.Matching == nil {
		return nil, domain.InvalidAction("question %s is not a matching grid", c.Question.ID)
	}
	return c.State.Matching, nil
}

// NormalizePath orders the edges of a path column by column and checks that
// they chain from column 0 to the last column. It returns the displayed
// position picked in each column.
func NormalizePath(edges []domain.MatchEdge, numCols int) ([]int, error) {
	if numCols < 2 || len(edges) != numCols-1 {
		return nil, domain.IllegalChoice("a path needs exactly %d edges", numCols-1)
	}
	sorted := make([]domain.MatchEdge, len(edges))
	for i, e := range edges {
		if e.From.Col > e.To.Col {
			e.From, e.To = e.To, e.From
		}
		sorted[i] = e
	}
	slices.SortFunc(sorted, func(a, b domain.MatchEdge) int { return a.From.Col - b.From.Col })

	positions := make([]int, numCols)
	for i, e := range sorted {
		if e.From.Col != i || e.To.Col != i+1 {
			return nil, domain.IllegalChoice("edges must link adjacent columns once each")
		}
		if i > 0 && e.From.Pos != positions[i] {
			return nil, domain.IllegalChoice("edges do not form a path")
		}
		positions[i] = e.From.Pos
		positions[i+1] = e.To.Pos
	}
	return positions, nil
}

// LongestRun finds the longest stretch of consecutive columns that agree on
// one row. It returns the start column and the length.
func LongestRun(rows []int) (start, length int) {
	if len(rows) == 0 {
		return 0, 0
	}
	bestStart, bestLen := 0, 1
	curStart := 0
	for i := 1; i < len(rows); i++ {
		if rows[i] != rows[i-1] {
			curStart = i
			continue
		}
		if l := i - curStart + 1; l > bestLen {
			bestStart, bestLen = curStart, l
		}
	}
	return bestStart, bestLen
}

// SubmitPath checks a path of the chooser team. A correct path records the
// row and passes the turn, or ends the question when it was the last row.
// A wrong path costs the mistake penalty and passes the turn.
func (Matching) SubmitPath(c *Context, playerID string, edges []domain.MatchEdge) error {
	st, err := matchingState(c)
	if err != nil {
		return err
	}
	if err := c.requireOpen(); err != nil {
		return err
	}
	teamID, err := c.S.PlayerTeam(playerID)
	if err != nil {
		return err
	}
	if err := c.requireChooser(teamID); err != nil {
		return err
	}

	d := c.Question.Matching
	positions, err := NormalizePath(edges, d.NumCols())
	if err != nil {
		return err
	}
	rows := make([]int, len(positions))
	for col, pos := range positions {
		if pos < 0 || pos >= d.NumRows() {
			return domain.IllegalChoice("position %d is out of range", pos)
		}
		rows[col] = st.Shuffled[col][pos]
		if st.IsRowFound(rows[col]) {
			return domain.IllegalChoice("column %d item was already matched", col)
		}
	}

	allSame := true
	for _, r := range rows[1:] {
		if r != rows[0] {
			allSame = false
			break
		}
	}
	if !allSame {
		return matchMistake(c, st, teamID, edges, rows)
	}

	st.Correct = append(st.Correct, domain.CorrectMatch{TeamID: teamID, Row: rows[0], Edges: edges, Timestamp: c.S.Now})
	if err := c.S.AddSound(domain.SoundCorrect); err != nil {
		return err
	}
	c.save()

	if len(st.Correct) < d.NumRows() {
		return c.passTurn()
	}
	return finishMatching(c)
}

func matchMistake(c *Context, st *domain.MatchingState, teamID string, edges []domain.MatchEdge, rows []int) error {
	rec := domain.IncorrectMatch{TeamID: teamID, Edges: edges, Timestamp: c.S.Now}
	if len(rows) > 2 {
		if start, length := LongestRun(rows); length >= 2 {
			rec.Partial = &domain.PartialMatch{StartCol: start, Length: length}
		}
	}
	st.Incorrect = append(st.Incorrect, rec)

	if err := c.award(teamID, c.Round.MistakePenalty); err != nil {
		return err
	}
	if err := c.S.AddSound(domain.SoundWrong); err != nil {
		return err
	}
	c.save()
	return c.passTurn()
}

// finishMatching reorders the chooser by this round's performance, worst
// team first, and ends the question.
func finishMatching(c *Context) error {
	rs, err := c.S.RoundScores(c.Round.ID)
	if err != nil {
		return err
	}
	groups := scoring.GroupByScore(rs.Scores, c.Round.Type.LowerIsBetter())
	worstFirst := make([][]string, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		worstFirst = append(worstFirst, groups[i].Teams)
	}

	cs, err := c.S.Chooser()
	if err != nil {
		return err
	}
	c.Rotation.RebuildFromRanking(cs, worstFirst)
	c.S.SaveChooser(cs)

	if err := c.S.ResetPlayers(); err != nil {
		return err
	}
	return c.end()
}

// HandleCountdownExpiry counts as a mistake of the chooser team.
func (Matching) HandleCountdownExpiry(c *Context) error {
	st, err := matchingState(c)
	if err != nil {
		return err
	}
	cs, err := c.S.Chooser()
	if err != nil {
		return err
	}
	teamID, ok := chooser.Current(cs)
	if !ok {
		return c.end()
	}
	return matchMistake(c, st, teamID, nil, nil)
}
