package question

import (
	"slices"

	"github.com/dom/trivia-night/internal/domain"
)

// Enumeration resolves "name as many as you can" questions. Teams bet on how
// many items they can cite; the highest bet challenges.
type Enumeration struct{}

func (Enumeration) Family() domain.Family { return domain.FamilyEnumeration }

func (Enumeration) Reset(c *Context) error {
	c.State.Enumeration = &domain.EnumerationState{
		Phase: domain.EnumerationPhaseBetting,
		Bets:  []domain.Bet{},
	}
	return nil
}

func enumerationState(c *Context) (*domain.EnumerationState, error) {
	if c.State.Enumeration == nil {
		return nil, domain.InvalidAction("question %s is not an enumeration", c.Question.ID)
	}
	return c.State.Enumeration, nil
}

// PlaceBet records how many items a team claims it can cite. A team bets
// once; a later bet from the same team must be higher and goes to the back
// of the submission order.
func (Enumeration) PlaceBet(c *Context, playerID string, value int) error {
	st, err := enumerationState(c)
	if err != nil {
		return err
	}
	if st.Phase != domain.EnumerationPhaseBetting {
		return domain.InvalidAction("betting is closed")
	}
	if err := c.requireOpen(); err != nil {
		return err
	}
	d := c.Question.Enumeration
	if value < 1 || (d.MaxIsKnown && value > len(d.Answer)) {
		return domain.IllegalChoice("bet %d is out of range", value)
	}
	teamID, err := c.S.PlayerTeam(playerID)
	if err != nil {
		return err
	}

	if i := slices.IndexFunc(st.Bets, func(b domain.Bet) bool { return b.TeamID == teamID }); i >= 0 {
		if value <= st.Bets[i].Value {
			return domain.InvalidAction("team %s must raise its bet of %d", teamID, st.Bets[i].Value)
		}
		st.Bets = slices.Delete(st.Bets, i, i+1)
	}
	st.Bets = append(st.Bets, domain.Bet{PlayerID: playerID, TeamID: teamID, Value: value, Timestamp: c.S.Now})

	if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusReady); err != nil {
		return err
	}
	c.save()
	return nil
}

// SelectChallenger returns the highest bet, the earliest one on a tie.
func SelectChallenger(bets []domain.Bet) (domain.Bet, bool) {
	if len(bets) == 0 {
		return domain.Bet{}, false
	}
	best := bets[0]
	for _, b := range bets[1:] {
		if b.Value > best.Value {
			best = b
		}
	}
	return best, true
}

// EndBetting closes the bets and starts the challenge of the highest bidder.
// Without any bet the question ends.
func (Enumeration) EndBetting(c *Context) error {
	st, err := enumerationState(c)
	if err != nil {
		return err
	}
	if st.Phase != domain.EnumerationPhaseBetting {
		return nil
	}
	return endBetting(c, st)
}

func endBetting(c *Context, st *domain.EnumerationState) error {
	best, ok := SelectChallenger(st.Bets)
	if !ok {
		st.Phase = domain.EnumerationPhaseEnded
		c.save()
		return c.end()
	}

	st.Phase = domain.EnumerationPhaseChallenge
	st.Challenger = &domain.Challenger{
		PlayerID: best.PlayerID,
		TeamID:   best.TeamID,
		Bet:      best.Value,
		Cited:    []int{},
	}
	if err := c.S.ResetPlayers(); err != nil {
		return err
	}
	if err := c.S.SetPlayerStatus(best.PlayerID, domain.PlayerStatusFocus); err != nil {
		return err
	}
	c.save()

	duration := c.Question.Enumeration.ChallengeTime
	if duration <= 0 {
		duration = c.Round.ThinkingSeconds()
	}
	return c.S.RestartTimer(duration)
}

// CiteItem marks an answer item as cited by the challenger. Citing every
// item ends the challenge.
func (Enumeration) CiteItem(c *Context, idx int) error {
	st, err := enumerationState(c)
	if err != nil {
		return err
	}
	if st.Phase != domain.EnumerationPhaseChallenge {
		return domain.InvalidAction("no challenge in progress")
	}
	if idx < 0 || idx >= len(c.Question.Enumeration.Answer) {
		return domain.IllegalChoice("item %d is out of range", idx)
	}
	if slices.Contains(st.Challenger.Cited, idx) {
		return nil
	}
	st.Challenger.Cited = append(st.Challenger.Cited, idx)
	c.save()

	if len(st.Challenger.Cited) == len(c.Question.Enumeration.Answer) {
		return endChallenge(c, st)
	}
	return nil
}

// EndChallenge settles the bet. Reaching it pays reward, plus the bonus when
// the challenger cited more than bet. Missing it pays reward to every other
// team.
func (Enumeration) EndChallenge(c *Context) error {
	st, err := enumerationState(c)
	if err != nil {
		return err
	}
	if st.Phase != domain.EnumerationPhaseChallenge {
		return domain.InvalidAction("no challenge in progress")
	}
	return endChallenge(c, st)
}

func endChallenge(c *Context, st *domain.EnumerationState) error {
	ch := st.Challenger
	cited := len(ch.Cited)
	success := cited >= ch.Bet
	ch.Success = &success
	st.Phase = domain.EnumerationPhaseEnded

	if success {
		reward := c.Round.RewardsPerQuestion
		if cited > ch.Bet {
			reward += c.Round.Bonus
		}
		if err := c.award(ch.TeamID, reward); err != nil {
			return err
		}
		if err := c.S.SetPlayerStatus(ch.PlayerID, domain.PlayerStatusCorrect); err != nil {
			return err
		}
		if err := c.S.AddSound(domain.SoundCorrect); err != nil {
			return err
		}
	} else {
		roster, err := c.S.Roster()
		if err != nil {
			return err
		}
		for _, team := range roster.TeamIDs() {
			if team == ch.TeamID {
				continue
			}
			if err := c.award(team, c.Round.RewardsPerQuestion); err != nil {
				return err
			}
		}
		if err := c.S.SetPlayerStatus(ch.PlayerID, domain.PlayerStatusWrong); err != nil {
			return err
		}
		if err := c.S.AddSound(domain.SoundWrong); err != nil {
			return err
		}
	}

	c.save()
	return c.end()
}

// HandleCountdownExpiry closes whichever phase is running.
func (Enumeration) HandleCountdownExpiry(c *Context) error {
	st, err := enumerationState(c)
	if err != nil {
		return err
	}
	switch st.Phase {
	case domain.EnumerationPhaseBetting:
		return endBetting(c, st)
	case domain.EnumerationPhaseChallenge:
		return endChallenge(c, st)
	}
	return nil
}
