package question

import (
	"github.com/dom/trivia-night/internal/domain"
)

// Riddle resolves buzzer questions: progressive clues, image, blindtest and
// emoji.
type Riddle struct{}

func (Riddle) Family() domain.Family { return domain.FamilyRiddle }

func (Riddle) Reset(c *Context) error {
	c.State.Riddle = &domain.RiddleState{BuzzerState: newBuzzerState()}
	return nil
}

func riddleState(c *Context) (*domain.RiddleState, error) {
	if c.State.Riddle == nil {
		return nil, domain.InvalidAction("question %s is not a riddle", c.Question.ID)
	}
	return c.State.Riddle, nil
}

// Buzz queues a player to answer.
func (Riddle) Buzz(c *Context, playerID string) error {
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	return c.buzz(&st.BuzzerState, playerID, st.CurrentClueIdx)
}

// Unbuzz takes a player out of the queue.
func (Riddle) Unbuzz(c *Context, playerID string) error {
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	return c.unbuzz(&st.BuzzerState, playerID)
}

// Validate accepts the answer of the head of the queue, rewards their team
// and ends the question.
func (Riddle) Validate(c *Context, playerID string) error {
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	winner, err := head(&st.BuzzerState, playerID)
	if err != nil {
		return err
	}
	teamID, err := c.S.PlayerTeam(winner)
	if err != nil {
		return err
	}

	st.Winner = &domain.Winner{PlayerID: winner, TeamID: teamID}
	if err := c.award(teamID, c.Round.RewardsPerQuestion); err != nil {
		return err
	}
	if err := c.S.SetPlayerStatus(winner, domain.PlayerStatusCorrect); err != nil {
		return err
	}
	if err := c.S.AddSound(domain.SoundCorrect); err != nil {
		return err
	}
	c.save()
	return c.end()
}

// Invalidate rejects the answer of the head of the queue.
func (Riddle) Invalidate(c *Context, playerID string) error {
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	_, err = c.invalidateHead(&st.BuzzerState, playerID, st.CurrentClueIdx)
	return err
}

// AdvanceClue shows the next progressive clue. The queue is cleared and
// players whose clue delay just ran out may buzz again.
func (Riddle) AdvanceClue(c *Context) error {
	if c.Question.Type != domain.RoundTypeProgressiveClues {
		return domain.InvalidAction("only progressive clues have more clues")
	}
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	if st.CurrentClueIdx >= c.Question.Riddle.NumClues()-1 {
		return domain.InvalidAction("no more clues")
	}
	return advanceClue(c, st)
}

func advanceClue(c *Context, st *domain.RiddleState) error {
	if err := c.clearQueue(&st.BuzzerState); err != nil {
		return err
	}
	st.CurrentClueIdx++

	seen := make(map[string]bool)
	for _, cb := range st.Canceled {
		if seen[cb.PlayerID] || st.IsBlocked(cb.PlayerID) {
			continue
		}
		seen[cb.PlayerID] = true
		if clueDelayRemaining(&st.BuzzerState, cb.PlayerID, st.CurrentClueIdx, c.clueDelay()) == 0 {
			if err := c.S.SetPlayerStatus(cb.PlayerID, domain.PlayerStatusIdle); err != nil {
				return err
			}
		}
	}

	c.save()
	return c.restartTimer()
}

// HandleCountdownExpiry cancels a head buzzer who ran out of time. With
// nobody buzzing, progressive clues move to the next clue and every other
// case ends the question without a winner.
func (Riddle) HandleCountdownExpiry(c *Context) error {
	st, err := riddleState(c)
	if err != nil {
		return err
	}
	if len(st.Buzzed) > 0 {
		if _, err := c.invalidateHead(&st.BuzzerState, "", st.CurrentClueIdx); err != nil {
			return err
		}
		return c.restartTimer()
	}
	if c.Question.Type == domain.RoundTypeProgressiveClues && st.CurrentClueIdx < c.Question.Riddle.NumClues()-1 {
		return advanceClue(c, st)
	}
	return c.end()
}
