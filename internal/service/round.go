package service

import (
	"errors"
	"slices"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/scoring"
	"github.com/dom/trivia-night/internal/session"
	"github.com/dom/trivia-night/internal/timer"
)

// rounds sequences the questions of a round and scores it. Every method runs
// inside the caller's transaction.
type rounds struct {
	deps question.Deps
}

// playedCount counts the rounds of g that already started.
func playedCount(s *session.Session, g *domain.Game) (int, error) {
	n := 0
	for _, id := range g.RoundIDs {
		r, err := s.Round(id)
		if err != nil {
			return 0, err
		}
		if r.Order != nil {
			n++
		}
	}
	return n, nil
}

// start begins round r: it gets its order, fresh scores, and either its first
// question or the finale.
func (o rounds) start(s *session.Session, g *domain.Game, r *domain.Round) error {
	if r.Order == nil {
		n, err := playedCount(s, g)
		if err != nil {
			return err
		}
		r.Order = &n
	}
	if r.DateStart == nil {
		now := s.Now
		r.DateStart = &now
	}

	roster, err := s.Roster()
	if err != nil {
		return err
	}
	s.SaveRoundScores(r.ID, domain.NewRoundScores(roster.TeamIDs()))

	if r.Type == domain.RoundTypeSpecial {
		s.SaveRound(r)
		return startFinale(s, g, r)
	}
	if len(r.QuestionIDs) == 0 {
		return domain.InvalidAction("round %s has no questions", r.ID)
	}
	return o.moveToQuestion(s, g, r, 0, false)
}

// moveToQuestion makes question index of r the active one. A replay restarts
// the current question and keeps the team that was already playing it.
func (o rounds) moveToQuestion(s *session.Session, g *domain.Game, r *domain.Round, index int, replay bool) error {
	if index < 0 || index >= len(r.QuestionIDs) {
		return domain.IllegalChoice("round %s has no question %d", r.ID, index)
	}
	q, err := s.Question(r.QuestionIDs[index])
	if err != nil {
		return err
	}
	r.CurrentQuestionIndex = index
	s.SaveRound(r)

	if err := s.ResetPlayers(); err != nil {
		return err
	}
	if r.Type.IsTurnBased() {
		if err := o.assignChooser(s, r, index, replay); err != nil {
			return err
		}
	}

	c, err := question.NewContext(s, o.deps, g, r, q)
	if err != nil {
		return err
	}
	if err := question.Reset(c); err != nil {
		return err
	}
	now := s.Now
	c.State.DateStart = &now
	s.SaveQuestionState(c.State)

	g.SetQuestion(r.ID, q.ID, domain.GameStatusQuestionActive)
	s.SaveGame(g)
	return s.ResetTimer(r.ThinkingSeconds())
}

// assignChooser picks the team playing question index of a turn-based round
// and puts it in focus. Replays neither rotate nor count a new assignment.
func (o rounds) assignChooser(s *session.Session, r *domain.Round, index int, replay bool) error {
	cs, err := s.Chooser()
	if err != nil {
		return err
	}
	rotates := r.Type.RotatesChooserPerQuestion()
	switch {
	case rotates && index > 0 && !replay:
		chooser.Advance(cs)
	case !rotates:
		chooser.ResetIndex(cs)
	}
	s.SaveChooser(cs)

	team, ok := chooser.Current(cs)
	if !ok {
		return domain.InvalidAction("no chooser team")
	}
	if rotates && !replay {
		rs, err := s.RoundScores(r.ID)
		if err != nil {
			return err
		}
		rs.Assigned[team]++
		s.SaveRoundScores(r.ID, rs)
	}
	return s.SetTeamStatus(team, domain.PlayerStatusFocus)
}

// maxPoints is the best score a team can reach in r under the completion
// rate policy. ok is false for round types without a defined maximum.
func maxPoints(s *session.Session, r *domain.Round, rs *domain.RoundScores, teamID string) (int, bool, error) {
	switch r.Type.Family() {
	case domain.FamilyRiddle:
		return len(r.QuestionIDs) * r.RewardsPerQuestion, true, nil
	case domain.FamilyBasic:
		return rs.Assigned[teamID] * r.RewardsPerQuestion, true, nil
	case domain.FamilyEnumeration:
		return len(r.QuestionIDs) * (r.RewardsPerQuestion + r.Bonus), true, nil
	case domain.FamilyQuote:
		total := 0
		for _, id := range r.QuestionIDs {
			q, err := s.Question(id)
			if err != nil {
				return 0, false, err
			}
			total += q.Quote.NumElements() * r.ElementReward()
		}
		return total, true, nil
	case domain.FamilyMCQ:
		// Setup keeps one subtype per round.
		subtype := domain.MCQImmediate
		if len(r.QuestionIDs) > 0 {
			q, err := s.Question(r.QuestionIDs[0])
			if err != nil {
				return 0, false, err
			}
			subtype = q.MCQ.Subtype
		}
		return rs.Assigned[teamID] * question.MaxReward(r, subtype), true, nil
	}
	return 0, false, nil
}

// end closes round r. Calling it on a round that already ended does nothing.
func (o rounds) end(s *session.Session, g *domain.Game, r *domain.Round) error {
	if r.DateEnd != nil {
		return nil
	}
	roster, err := s.Roster()
	if err != nil {
		return err
	}
	teams := roster.TeamIDs()
	rs, err := s.RoundScores(r.ID)
	if err != nil {
		return err
	}
	gs, err := s.GameScores()
	if err != nil {
		return err
	}

	groups := scoring.GroupByScore(rs.Scores, r.Type.LowerIsBetter())
	for i := range groups {
		o.deps.Rotation.Shuffle(groups[i].Teams)
	}

	rewards, err := roundRewards(s, r, rs, groups)
	if err != nil {
		return err
	}
	for _, team := range teams {
		gs.Scores[team] += rewards[team]
		if gs.Progress[team] == nil {
			gs.Progress[team] = make(map[string]int)
		}
		gs.Progress[team][r.ID] = gs.Scores[team]
	}

	worstFirst := make([][]string, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		worstFirst = append(worstFirst, groups[i].Teams)
	}
	cs, err := s.Chooser()
	if err != nil {
		return err
	}
	o.deps.Rotation.RebuildFromRanking(cs, worstFirst)
	s.SaveChooser(cs)

	rs.Progress = scoring.FillProgress(rs.Progress, teams, r.QuestionIDs)

	rankDiff, err := previousRankDiff(s, g, r, gs)
	if err != nil {
		return err
	}
	rs.Summary = &domain.RoundSummary{Groups: groups, Rewards: rewards, RankDiff: rankDiff}
	s.SaveRoundScores(r.ID, rs)
	s.SaveGameScores(gs)

	now := s.Now
	r.DateEnd = &now
	s.SaveRound(r)

	if err := s.ResetPlayers(); err != nil {
		return err
	}
	g.ClearQuestion(domain.GameStatusRoundEnd)
	s.SaveGame(g)
	if err := s.ResetTimer(0); err != nil {
		return err
	}
	return s.AddSound(domain.SoundRoundEnd)
}

// roundRewards pays the round under its score policy. Setup refuses the
// completion rate policy for types without a maximum; such a round pays 0.
func roundRewards(s *session.Session, r *domain.Round, rs *domain.RoundScores, groups []domain.ScoreGroup) (map[string]int, error) {
	if r.ScorePolicy == domain.ScorePolicyCompletionRate {
		rewards := make(map[string]int, len(rs.Scores))
		for team, score := range rs.Scores {
			best, ok, err := maxPoints(s, r, rs, team)
			if err != nil {
				return nil, err
			}
			if !ok {
				rewards[team] = 0
				continue
			}
			rewards[team] = scoring.CompletionRate(score, best)
		}
		return rewards, nil
	}
	return scoring.RankingRewards(groups, r.RewardsTable), nil
}

// previousRankDiff compares the global ranking after r with the one after
// the round played just before it. The first round has no deltas.
func previousRankDiff(s *session.Session, g *domain.Game, r *domain.Round, gs *domain.GameScores) (map[string]*int, error) {
	if r.Order == nil || *r.Order == 0 {
		return nil, nil
	}
	for _, id := range g.RoundIDs {
		prev, err := s.Round(id)
		if err != nil {
			return nil, err
		}
		if prev.Order != nil && *prev.Order == *r.Order-1 && prev.Played() {
			return scoring.RankDiff(scoring.Snapshot(gs.Progress, prev.ID), gs.Scores), nil
		}
	}
	return nil, nil
}

// resumable reports whether r was left in the middle of a question.
func resumable(r *domain.Round) bool {
	return r.InProgress() && r.Type != domain.RoundTypeSpecial && len(r.QuestionIDs) > 0
}

// resume re-enters the current question of r as active without touching its
// state. A question that had already ended cannot be timed again; the
// organizer ends it to move on.
func resume(s *session.Session, g *domain.Game, r *domain.Round) error {
	qID := r.QuestionIDs[r.CurrentQuestionIndex]
	if _, err := s.QuestionState(r.ID, qID); err != nil {
		return err
	}
	g.SetQuestion(r.ID, qID, domain.GameStatusQuestionActive)
	s.SaveGame(g)
	return nil
}

// revertQuestionScores takes back what teams earned on qID, the current
// question of r.
func revertQuestionScores(s *session.Session, r *domain.Round, qID string) error {
	rs, err := s.RoundScores(r.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	idx := slices.Index(r.QuestionIDs, qID)
	for team, row := range rs.Progress {
		after, ok := row[qID]
		if !ok {
			continue
		}
		before := 0
		for i := idx - 1; i >= 0; i-- {
			if v, ok := row[r.QuestionIDs[i]]; ok {
				before = v
				break
			}
		}
		rs.Scores[team] -= after - before
		delete(row, qID)
	}
	s.SaveRoundScores(r.ID, rs)
	return nil
}

// stopCountdown ends a countdown whose expiry was handled without touching
// the timer, so the same generation cannot apply twice.
func stopCountdown(s *session.Session, generation int64) error {
	t, err := s.Timer()
	if err != nil {
		return err
	}
	if t.Generation == generation && t.Status == domain.TimerStatusStart {
		timer.End(t, s.Now)
		s.SaveTimer(t)
	}
	return nil
}
