package question

import (
	"time"

	"github.com/dom/trivia-night/internal/domain"
)

// Quote resolves "who said it" questions: players buzz, then the organizer
// reveals the author, the source or parts of the quote.
type Quote struct{}

func (Quote) Family() domain.Family { return domain.FamilyQuote }

func (Quote) Reset(c *Context) error {
	c.State.Quote = &domain.QuoteState{
		BuzzerState:   newBuzzerState(),
		Revealed:      map[string]domain.RevealEntry{},
		RevealedParts: map[int]domain.RevealEntry{},
	}
	return nil
}

func quoteState(c *Context) (*domain.QuoteState, error) {
	if c.State.Quote == nil {
		return nil, domain.InvalidAction("question %s is not a quote", c.Question.ID)
	}
	st := c.State.Quote
	if st.Revealed == nil {
		st.Revealed = map[string]domain.RevealEntry{}
	}
	if st.RevealedParts == nil {
		st.RevealedParts = map[int]domain.RevealEntry{}
	}
	return st, nil
}

func (Quote) Buzz(c *Context, playerID string) error {
	st, err := quoteState(c)
	if err != nil {
		return err
	}
	return c.buzz(&st.BuzzerState, playerID, 0)
}

func (Quote) Unbuzz(c *Context, playerID string) error {
	st, err := quoteState(c)
	if err != nil {
		return err
	}
	return c.unbuzz(&st.BuzzerState, playerID)
}

func (Quote) Invalidate(c *Context, playerID string) error {
	st, err := quoteState(c)
	if err != nil {
		return err
	}
	_, err = c.invalidateHead(&st.BuzzerState, playerID, 0)
	return err
}

type quoteElement struct {
	key  string
	part int
}

// hiddenElements lists the elements still to reveal in authoring order.
func hiddenElements(d *domain.QuoteDetails, st *domain.QuoteState) []quoteElement {
	var hidden []quoteElement
	for _, key := range d.ToGuess {
		if key == domain.QuoteElementQuote {
			for i := range d.QuoteParts {
				if _, ok := st.RevealedParts[i]; !ok {
					hidden = append(hidden, quoteElement{key: key, part: i})
				}
			}
			continue
		}
		if _, ok := st.Revealed[key]; !ok {
			hidden = append(hidden, quoteElement{key: key})
		}
	}
	return hidden
}

type quoteReveal struct {
	state    *domain.QuoteState
	playerID *string
	now      time.Time
}

func (st *quoteReveal) apply(e quoteElement) {
	entry := domain.RevealEntry{RevealedAt: st.now, PlayerID: st.playerID}
	if e.key == domain.QuoteElementQuote {
		st.state.RevealedParts[e.part] = entry
		return
	}
	st.state.Revealed[e.key] = entry
}

// RevealElement exposes one element. With attribute set, the head of the
// buzzer queue earned it and their team gets the element reward; otherwise
// the organizer gives it away. The question ends once nothing is hidden.
func (Quote) RevealElement(c *Context, key string, partIdx *int, attribute bool) error {
	st, err := quoteState(c)
	if err != nil {
		return err
	}
	d := c.Question.Quote
	if !d.Guesses(key) {
		return domain.IllegalChoice("%q is not an element to guess", key)
	}
	e := quoteElement{key: key}
	if key == domain.QuoteElementQuote {
		if partIdx == nil || *partIdx < 0 || *partIdx >= len(d.QuoteParts) {
			return domain.IllegalChoice("quote part out of range")
		}
		e.part = *partIdx
		if _, ok := st.RevealedParts[e.part]; ok {
			return nil
		}
	} else if _, ok := st.Revealed[key]; ok {
		return nil
	}

	rv := &quoteReveal{state: st, now: c.S.Now}
	if attribute {
		playerID, err := head(&st.BuzzerState, "")
		if err != nil {
			return err
		}
		teamID, err := c.S.PlayerTeam(playerID)
		if err != nil {
			return err
		}
		rv.playerID = &playerID
		if err := c.award(teamID, c.Round.ElementReward()); err != nil {
			return err
		}
		st.Remove(playerID)
		if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusCorrect); err != nil {
			return err
		}
		if err := c.S.AddSound(domain.SoundCorrect); err != nil {
			return err
		}
	}
	rv.apply(e)
	c.save()

	if len(hiddenElements(d, st)) == 0 {
		return c.end()
	}
	return nil
}

// ValidateAll reveals every remaining element at once and credits the head
// buzzer with the reward of each element that was still hidden.
func (Quote) ValidateAll(c *Context, playerID string) error {
	st, err := quoteState(c)
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

	hidden := hiddenElements(c.Question.Quote, st)
	rv := &quoteReveal{state: st, playerID: &winner, now: c.S.Now}
	for _, e := range hidden {
		rv.apply(e)
	}
	if err := c.award(teamID, c.Round.ElementReward()*len(hidden)); err != nil {
		return err
	}
	st.Remove(winner)
	if err := c.S.SetPlayerStatus(winner, domain.PlayerStatusCorrect); err != nil {
		return err
	}
	if err := c.S.AddSound(domain.SoundCorrect); err != nil {
		return err
	}
	c.save()
	return c.end()
}

// HandleCountdownExpiry cancels a head buzzer who ran out of time. With
// nobody buzzing, the rest is revealed for free and the question ends.
func (Quote) HandleCountdownExpiry(c *Context) error {
	st, err := quoteState(c)
	if err != nil {
		return err
	}
	if len(st.Buzzed) > 0 {
		if _, err := c.invalidateHead(&st.BuzzerState, "", 0); err != nil {
			return err
		}
		return c.restartTimer()
	}

	rv := &quoteReveal{state: st, now: c.S.Now}
	for _, e := range hiddenElements(c.Question.Quote, st) {
		rv.apply(e)
	}
	c.save()
	return c.end()
}
