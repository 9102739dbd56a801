package question

import (
	"github.com/dom/trivia-night/internal/domain"
)

// Basic resolves plain questions judged by the organizer.
type Basic struct{}

func (Basic) Family() domain.Family { return domain.FamilyBasic }

func (Basic) Reset(c *Context) error {
	c.State.Basic = &domain.BasicState{}
	return nil
}

func basicState(c *Context) (*domain.BasicState, error) {
	if c.State.Basic == nil {
		return nil, domain.InvalidAction("question %s is not a basic question", c.Question.ID)
	}
	return c.State.Basic, nil
}

// SubmitAnswer records the organizer's verdict for a team and ends the
// question.
func (Basic) SubmitAnswer(c *Context, teamID string, correct bool) error {
	st, err := basicState(c)
	if err != nil {
		return err
	}
	roster, err := c.S.Roster()
	if err != nil {
		return err
	}
	if !roster.HasTeam(teamID) {
		return domain.IllegalChoice("unknown team %s", teamID)
	}
	return settleBasic(c, st, teamID, correct)
}

func settleBasic(c *Context, st *domain.BasicState, teamID string, correct bool) error {
	st.TeamID = &teamID
	st.Correct = &correct
	status, sound := domain.PlayerStatusWrong, domain.SoundWrong
	if correct {
		st.Reward = c.Round.RewardsPerQuestion
		status, sound = domain.PlayerStatusCorrect, domain.SoundCorrect
		if err := c.award(teamID, st.Reward); err != nil {
			return err
		}
	}
	if err := c.S.SetTeamStatus(teamID, status); err != nil {
		return err
	}
	if err := c.S.AddSound(sound); err != nil {
		return err
	}
	c.save()
	return c.end()
}

// HandleCountdownExpiry counts as a wrong answer of the chooser team.
func (Basic) HandleCountdownExpiry(c *Context) error {
	st, err := basicState(c)
	if err != nil {
		return err
	}
	teamID, err := c.S.ChooserTeam()
	if err != nil {
		return err
	}
	return settleBasic(c, st, teamID, false)
}
