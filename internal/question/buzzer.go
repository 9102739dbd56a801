package question

import (
	"github.com/dom/trivia-night/internal/domain"
)

// clueDelayRemaining is how many more clues a canceled player must wait
// before buzzing again.
func clueDelayRemaining(b *domain.BuzzerState, playerID string, currentClue, delay int) int {
	if delay <= 0 {
		return 0
	}
	count, lastClue := b.Cancellations(playerID)
	if count == 0 {
		return 0
	}
	return delay - (currentClue - lastClue)
}

// clueDelay is the round's clue delay. Only progressive clues have clues to
// wait for.
func (c *Context) clueDelay() int {
	if c.Question.Type != domain.RoundTypeProgressiveClues {
		return 0
	}
	return c.Round.ClueDelay
}

func (c *Context) buzz(b *domain.BuzzerState, playerID string, currentClue int) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	if _, err := c.S.PlayerTeam(playerID); err != nil {
		return err
	}
	if b.IsQueued(playerID) {
		return nil
	}
	if b.IsBlocked(playerID) {
		return domain.InvalidAction("player %s has no tries left", playerID)
	}
	if wait := clueDelayRemaining(b, playerID, currentClue, c.clueDelay()); wait > 0 {
		return domain.InvalidAction("player %s must wait %d more clue(s)", playerID, wait)
	}

	b.Buzzed = append(b.Buzzed, playerID)
	if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusReady); err != nil {
		return err
	}
	if err := c.S.AddSound(domain.SoundBuzz); err != nil {
		return err
	}
	c.save()
	return nil
}

func (c *Context) unbuzz(b *domain.BuzzerState, playerID string) error {
	if !b.Remove(playerID) {
		return nil
	}
	if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusIdle); err != nil {
		return err
	}
	c.save()
	return nil
}

// head returns the first buzzer. When expected is set it must be the head.
func head(b *domain.BuzzerState, expected string) (string, error) {
	h, ok := b.Head()
	if !ok {
		return "", domain.InvalidAction("nobody is in the buzzer queue")
	}
	if expected != "" && expected != h {
		return "", domain.InvalidAction("player %s is not first in the buzzer queue", expected)
	}
	return h, nil
}

// invalidateHead cancels the first buzzer at the given clue and blocks them
// once they used all their tries.
func (c *Context) invalidateHead(b *domain.BuzzerState, expected string, currentClue int) (string, error) {
	h, err := head(b, expected)
	if err != nil {
		return "", err
	}

	b.Remove(h)
	b.Canceled = append(b.Canceled, domain.CanceledBuzz{PlayerID: h, ClueIdx: currentClue, Timestamp: c.S.Now})
	if count, _ := b.Cancellations(h); c.Round.MaxTries > 0 && count >= c.Round.MaxTries && !b.IsBlocked(h) {
		b.Blocked = append(b.Blocked, h)
	}

	if err := c.S.SetPlayerStatus(h, domain.PlayerStatusWrong); err != nil {
		return "", err
	}
	if err := c.S.AddSound(domain.SoundWrong); err != nil {
		return "", err
	}
	c.save()
	return h, nil
}

// clearQueue empties the queue and puts its players back to idle.
func (c *Context) clearQueue(b *domain.BuzzerState) error {
	for _, id := range b.Buzzed {
		if err := c.S.SetPlayerStatus(id, domain.PlayerStatusIdle); err != nil {
			return err
		}
	}
	b.Buzzed = []string{}
	return nil
}

func newBuzzerState() domain.BuzzerState {
	return domain.BuzzerState{Buzzed: []string{}, Canceled: []domain.CanceledBuzz{}, Blocked: []string{}}
}
