package question

import (
	"github.com/dom/trivia-night/internal/chooser"
	"github.com/dom/trivia-night/internal/domain"
)

// OddOneOut resolves elimination questions: teams take turns picking a
// proposal that fits, and picking the odd one is a mistake.
type OddOneOut struct{}

func (OddOneOut) Family() domain.Family { return domain.FamilyOddOneOut }

func (OddOneOut) Reset(c *Context) error {
	c.State.OddOneOut = &domain.OddOneOutState{Selected: []domain.OddOneOutSelection{}}
	return nil
}

func oddOneOutState(c *Context) (*domain.OddOneOutState, error) {
	if c.State.OddOneOut == nil {
		return nil, domain.InvalidAction("question %s is not an odd one out", c.Question.ID)
	}
	return c.State.OddOneOut, nil
}

// SelectProposal picks a proposal for the chooser team.
func (OddOneOut) SelectProposal(c *Context, playerID string, idx int) error {
	st, err := oddOneOutState(c)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(c.Question.OddOneOut.Items) {
		return domain.IllegalChoice("proposal %d is out of range", idx)
	}
	teamID, err := c.chooserPlayer(playerID)
	if err != nil {
		return err
	}
	return selectProposal(c, st, playerID, teamID, idx)
}

func selectProposal(c *Context, st *domain.OddOneOutState, playerID, teamID string, idx int) error {
	if st.IsSelected(idx) {
		return domain.InvalidAction("proposal %d was already picked", idx)
	}
	st.Selected = append(st.Selected, domain.OddOneOutSelection{Idx: idx, PlayerID: playerID, TeamID: teamID, Timestamp: c.S.Now})
	d := c.Question.OddOneOut

	if idx == d.Answer {
		// The finder is recorded as winner yet pays the mistake penalty.
		st.Winner = &domain.Winner{PlayerID: playerID, TeamID: teamID}
		if err := c.award(teamID, c.Round.MistakePenalty); err != nil {
			return err
		}
		cs, err := c.S.Chooser()
		if err != nil {
			return err
		}
		chooser.MoveToHead(cs, teamID)
		c.S.SaveChooser(cs)

		if playerID != "" {
			if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusWrong); err != nil {
				return err
			}
		}
		if err := c.S.AddSound(domain.SoundWrong); err != nil {
			return err
		}
		c.save()
		return c.end()
	}

	if err := c.S.AddSound(domain.SoundCorrect); err != nil {
		return err
	}
	c.save()

	// Every selection so far was a good one, so the odd proposal is the
	// only one left when len(Selected) reaches len(Items)-1.
	if len(st.Selected) >= len(d.Items)-1 {
		return c.end()
	}
	return c.passTurn()
}

// HandleCountdownExpiry picks a random remaining proposal for the chooser
// team.
func (OddOneOut) HandleCountdownExpiry(c *Context) error {
	st, err := oddOneOutState(c)
	if err != nil {
		return err
	}
	teamID, err := c.S.ChooserTeam()
	if err != nil {
		return err
	}
	var remaining []int
	for i := range c.Question.OddOneOut.Items {
		if !st.IsSelected(i) {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 0 {
		return c.end()
	}
	return selectProposal(c, st, "", teamID, remaining[c.Rand.IntN(len(remaining))])
}
