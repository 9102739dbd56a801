package service

import (
	"context"
	"slices"

	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/scoring"
	"github.com/dom/trivia-night/internal/session"
)

// startFinale enters the special round. Teams take turns, in chooser order,
// to play a theme of organizer-judged questions.
func startFinale(s *session.Session, g *domain.Game, r *domain.Round) error {
	if len(r.ThemeIDs) == 0 {
		return domain.InvalidAction("finale %s has no themes", r.ID)
	}
	cs, err := s.Chooser()
	if err != nil {
		return err
	}
	chooser.ResetIndex(cs)
	s.SaveChooser(cs)
	team, _ := chooser.Current(cs)

	now := s.Now
	f := &domain.FinaleState{
		Status:     domain.FinaleStatusHome,
		RoundID:    r.ID,
		Themes:     make(map[string]domain.ThemeResult, len(r.ThemeIDs)),
		ThemeOrder: slices.Clone(r.ThemeIDs),
		DateStart:  &now,
	}
	if team != "" {
		f.ChooserTeamID = &team
	}
	for _, id := range r.ThemeIDs {
		f.Themes[id] = domain.ThemeResult{Answers: []bool{}}
	}
	s.SaveFinale(f)

	if err := s.ResetPlayers(); err != nil {
		return err
	}
	if team != "" {
		if err := s.SetTeamStatus(team, domain.PlayerStatusFocus); err != nil {
			return err
		}
	}
	g.ClearQuestion(domain.GameStatusFinale)
	s.SaveGame(g)
	return s.ResetTimer(r.ThinkingSeconds())
}

func activeFinale(s *session.Session, g *domain.Game) (*domain.FinaleState, *domain.Round, error) {
	if g.Status != domain.GameStatusFinale {
		return nil, nil, domain.InvalidAction("the finale is not running (status %s)", g.Status)
	}
	f, err := s.Finale()
	if err != nil {
		return nil, nil, err
	}
	r, err := s.Round(f.RoundID)
	if err != nil {
		return nil, nil, err
	}
	return f, r, nil
}

// SelectTheme lets the chooser team, or the organizer on its behalf, pick the
// next theme.
func (svc *GameService) SelectTheme(ctx context.Context, caller domain.Caller, gameID, themeID string) error {
	if themeID == "" {
		return domain.Precondition("theme id is required")
	}
	return svc.engine.run(ctx, "SelectTheme", gameID, func(s *session.Session) error {
		g, err := s.Game()
		if err != nil {
			return err
		}
		f, r, err := activeFinale(s, g)
		if err != nil {
			return err
		}
		if f.Status == domain.FinaleStatusThemeActive && f.CurrentThemeID != nil && *f.CurrentThemeID == themeID {
			return nil
		}
		if f.Status != domain.FinaleStatusHome {
			return domain.InvalidAction("a theme is already being played")
		}
		if f.ChooserTeamID == nil {
			return domain.InvalidAction("no chooser team")
		}
		if caller.UserID != g.OrganizerID {
			if err := requirePlayer(caller, gameID); err != nil {
				return err
			}
			team, err := s.PlayerTeam(caller.UserID)
			if err != nil {
				return err
			}
			if team != *f.ChooserTeamID {
				return domain.InvalidAction("team %s is not the chooser", team)
			}
		}
		res, ok := f.Themes[themeID]
		if !ok {
			return domain.IllegalChoice("theme %s is not part of the finale", themeID)
		}
		if res.Done {
			return domain.InvalidAction("theme %s was already played", themeID)
		}

		team := *f.ChooserTeamID
		res.TeamID = &team
		f.Themes[themeID] = res
		f.CurrentThemeID = &themeID
		f.QuestionIndex = 0
		f.Status = domain.FinaleStatusThemeActive
		s.SaveFinale(f)
		return s.ResetTimer(r.ThinkingSeconds())
	})
}

// JudgeThemeAnswer records the organizer's verdict on the current theme
// question. The last verdict of a theme credits its score to the team.
func (svc *GameService) JudgeThemeAnswer(ctx context.Context, caller domain.Caller, gameID string, correct bool) error {
	return svc.engine.run(ctx, "JudgeThemeAnswer", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		return judgeThemeAnswer(s, g, correct)
	})
}

func judgeThemeAnswer(s *session.Session, g *domain.Game, correct bool) error {
	f, r, err := activeFinale(s, g)
	if err != nil {
		return err
	}
	if f.Status != domain.FinaleStatusThemeActive {
		return domain.InvalidAction("no theme is being played")
	}
	theme, err := s.Theme(*f.CurrentThemeID)
	if err != nil {
		return err
	}
	res := f.Themes[theme.ID]
	res.Answers = append(res.Answers, correct)
	sound := domain.SoundWrong
	if correct {
		res.Score += max(r.RewardsPerQuestion, 1)
		sound = domain.SoundCorrect
	}
	if err := s.AddSound(sound); err != nil {
		return err
	}
	f.QuestionIndex++

	if f.QuestionIndex < len(theme.Questions) {
		f.Themes[theme.ID] = res
		s.SaveFinale(f)
		return s.RestartTimer(r.ThinkingSeconds())
	}

	res.Done = true
	f.Themes[theme.ID] = res
	f.Status = domain.FinaleStatusThemeEnd
	s.SaveFinale(f)

	gs, err := s.GameScores()
	if err != nil {
		return err
	}
	team := *res.TeamID
	gs.Scores[team] += res.Score
	if gs.Progress[team] == nil {
		gs.Progress[team] = make(map[string]int)
	}
	gs.Progress[team][r.ID] = gs.Scores[team]
	s.SaveGameScores(gs)
	return s.ResetTimer(r.ThinkingSeconds())
}

// FinaleHome closes a played theme and hands the turn to the next team. Once
// every theme was played the game ends.
func (svc *GameService) FinaleHome(ctx context.Context, caller domain.Caller, gameID string) error {
	return svc.engine.run(ctx, "FinaleHome", gameID, func(s *session.Session) error {
		g, err := requireOrganizer(s, caller)
		if err != nil {
			return err
		}
		if g.Status == domain.GameStatusGameEnd {
			return nil
		}
		f, r, err := activeFinale(s, g)
		if err != nil {
			return err
		}
		switch f.Status {
		case domain.FinaleStatusHome:
			return nil
		case domain.FinaleStatusThemeActive:
			return domain.InvalidAction("the current theme is still being played")
		}

		f.Status = domain.FinaleStatusHome
		f.CurrentThemeID = nil
		f.QuestionIndex = 0

		done := true
		for _, id := range f.ThemeOrder {
			if !f.Themes[id].Done {
				done = false
				break
			}
		}
		if done {
			now := s.Now
			f.DateEnd = &now
			s.SaveFinale(f)
			r.DateEnd = &now
			s.SaveRound(r)
			return endGame(s, g)
		}

		cs, err := s.Chooser()
		if err != nil {
			return err
		}
		next := chooser.Advance(cs)
		s.SaveChooser(cs)
		f.ChooserTeamID = &next
		s.SaveFinale(f)

		if err := s.ResetPlayers(); err != nil {
			return err
		}
		return s.SetTeamStatus(next, domain.PlayerStatusFocus)
	})
}

// endGame freezes the final ranking. Global progress becomes total over the
// teams and the played rounds, since a finale only records the teams that
// played a theme.
func endGame(s *session.Session, g *domain.Game) error {
	gs, err := s.GameScores()
	if err != nil {
		return err
	}
	roster, err := s.Roster()
	if err != nil {
		return err
	}
	played, err := playedRoundIDs(s, g)
	if err != nil {
		return err
	}
	gs.Progress = scoring.FillProgress(gs.Progress, roster.TeamIDs(), played)
	gs.FinalRanking = scoring.GroupByScore(gs.Scores, false)
	s.SaveGameScores(gs)

	now := s.Now
	g.EndedAt = &now
	g.ClearQuestion(domain.GameStatusGameEnd)
	s.SaveGame(g)

	if err := s.ResetPlayers(); err != nil {
		return err
	}
	if err := s.ResetTimer(0); err != nil {
		return err
	}
	return s.AddSound(domain.SoundGameEnd)
}

// playedRoundIDs lists the rounds that started, in play order.
func playedRoundIDs(s *session.Session, g *domain.Game) ([]string, error) {
	var played []*domain.Round
	for _, id := range g.RoundIDs {
		r, err := s.Round(id)
		if err != nil {
			return nil, err
		}
		if r.Order != nil {
			played = append(played, r)
		}
	}
	slices.SortFunc(played, func(x, y *domain.Round) int { return *x.Order - *y.Order })
	ids := make([]string, len(played))
	for i, r := range played {
		ids[i] = r.ID
	}
	return ids, nil
}
