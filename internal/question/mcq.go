package question

import (
	"slices"

	"github.com/dom/trivia-night/internal/domain"
)

// MCQ resolves multiple-choice questions played by the chooser team. The
// conditional subtype lets the team pick a risk tier before the choices are
// shown: hide (answer with no choices, judged by the organizer), square (all
// choices) or duo (two choices).
type MCQ struct{}

func (MCQ) Family() domain.Family { return domain.FamilyMCQ }

func (MCQ) Reset(c *Context) error {
	c.State.MCQ = &domain.MCQState{}
	return nil
}

func mcqState(c *Context) (*domain.MCQState, error) {
	if c.State.MCQ == nil {
		return nil, domain.InvalidAction("question %s is not a multiple choice", c.Question.ID)
	}
	return c.State.MCQ, nil
}

// MaxReward is the best reward one question of the round can pay.
func MaxReward(r *domain.Round, subtype domain.MCQSubtype) int {
	if subtype != domain.MCQConditional {
		return r.RewardsPerQuestion
	}
	best := 0
	for _, v := range r.RewardsByOption {
		best = max(best, v)
	}
	return best
}

func (c *Context) chooserPlayer(playerID string) (string, error) {
	if err := c.requireOpen(); err != nil {
		return "", err
	}
	teamID, err := c.S.PlayerTeam(playerID)
	if err != nil {
		return "", err
	}
	if err := c.requireChooser(teamID); err != nil {
		return "", err
	}
	return teamID, nil
}

// SelectOption locks the risk tier of a conditional question.
func (MCQ) SelectOption(c *Context, playerID, option string) error {
	st, err := mcqState(c)
	if err != nil {
		return err
	}
	d := c.Question.MCQ
	if d.Subtype != domain.MCQConditional {
		return domain.InvalidAction("question %s has no risk options", c.Question.ID)
	}
	if !slices.Contains(domain.MCQOptions(), option) {
		return domain.IllegalChoice("unknown option %q", option)
	}
	if st.Option != nil {
		if *st.Option == option {
			return nil
		}
		return domain.InvalidAction("option %s is already locked", *st.Option)
	}
	teamID, err := c.chooserPlayer(playerID)
	if err != nil {
		return err
	}

	st.PlayerID = &playerID
	st.TeamID = &teamID
	st.Option = &option
	if option == domain.MCQOptionDuo {
		st.DuoChoices = duoChoices(c, d)
	}
	if err := c.S.SetPlayerStatus(playerID, domain.PlayerStatusReady); err != nil {
		return err
	}
	c.save()
	return nil
}

// duoChoices keeps the answer and one random wrong choice, in display order.
func duoChoices(c *Context, d *domain.MCQDetails) []int {
	wrong := make([]int, 0, len(d.Choices)-1)
	for i := range d.Choices {
		if i != d.Answer {
			wrong = append(wrong, i)
		}
	}
	pair := []int{d.Answer, wrong[c.Rand.IntN(len(wrong))]}
	slices.Sort(pair)
	return pair
}

// SelectChoice answers the question and ends it.
func (MCQ) SelectChoice(c *Context, playerID string, idx int) error {
	st, err := mcqState(c)
	if err != nil {
		return err
	}
	d := c.Question.MCQ
	if st.Correct != nil {
		return domain.InvalidAction("question %s was already answered", c.Question.ID)
	}
	if idx < 0 || idx >= len(d.Choices) {
		return domain.IllegalChoice("choice %d is out of range", idx)
	}
	teamID, err := c.chooserPlayer(playerID)
	if err != nil {
		return err
	}

	reward := c.Round.RewardsPerQuestion
	if d.Subtype == domain.MCQConditional {
		switch {
		case st.Option == nil:
			return domain.InvalidAction("pick an option first")
		case *st.Option == domain.MCQOptionHide:
			return domain.InvalidAction("hidden answers are judged by the organizer")
		case *st.Option == domain.MCQOptionDuo && !slices.Contains(st.DuoChoices, idx):
			return domain.IllegalChoice("choice %d was not offered", idx)
		}
		reward = c.Round.RewardsByOption[*st.Option]
	}

	st.PlayerID = &playerID
	st.TeamID = &teamID
	st.Choice = &idx
	return settleMCQ(c, st, teamID, playerID, idx == d.Answer, reward)
}

// Judge settles a hidden-tier answer.
func (MCQ) Judge(c *Context, correct bool) error {
	st, err := mcqState(c)
	if err != nil {
		return err
	}
	if st.Option == nil || *st.Option != domain.MCQOptionHide {
		return domain.InvalidAction("only hidden answers are judged")
	}
	if st.Correct != nil {
		return domain.InvalidAction("question %s was already answered", c.Question.ID)
	}
	return settleMCQ(c, st, *st.TeamID, *st.PlayerID, correct, c.Round.RewardsByOption[domain.MCQOptionHide])
}

func settleMCQ(c *Context, st *domain.MCQState, teamID, playerID string, correct bool, reward int) error {
	st.Correct = &correct
	status, sound := domain.PlayerStatusWrong, domain.SoundWrong
	if correct {
		st.Reward = reward
		status, sound = domain.PlayerStatusCorrect, domain.SoundCorrect
		if err := c.award(teamID, reward); err != nil {
			return err
		}
	}
	if playerID != "" {
		if err := c.S.SetPlayerStatus(playerID, status); err != nil {
			return err
		}
	}
	if err := c.S.AddSound(sound); err != nil {
		return err
	}
	c.save()
	return c.end()
}

// HandleCountdownExpiry settles an unanswered question as wrong.
func (MCQ) HandleCountdownExpiry(c *Context) error {
	st, err := mcqState(c)
	if err != nil {
		return err
	}
	if st.Correct != nil {
		return c.end()
	}
	teamID, err := c.S.ChooserTeam()
	if err != nil {
		return err
	}
	playerID := ""
	if st.PlayerID != nil {
		playerID = *st.PlayerID
	}
	st.TeamID = &teamID
	return settleMCQ(c, st, teamID, playerID, false, 0)
}
