package service

import (
	"context"
	"slices"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/question"
	"github.com/dom/trivia-night/internal/session"
)

// PlayService exposes the question actions of players and the organizer.
// Every action names the question it aims at; an action for a question that
// is no longer active is rejected.
type PlayService struct {
	engine *Engine
}

func NewPlayService(engine *Engine) *PlayService {
	return &PlayService{engine: engine}
}

type actor int

const (
	byPlayer actor = iota
	byOrganizer
)

func (svc *PlayService) act(ctx context.Context, op string, who actor, caller domain.Caller, gameID, questionID string, families []domain.Family, fn func(c *question.Context) error) error {
	if who == byPlayer {
		if err := requirePlayer(caller, gameID); err != nil {
			return err
		}
	}
	return svc.engine.run(ctx, op, gameID, func(s *session.Session) error {
		if who == byOrganizer {
			if _, err := requireOrganizer(s, caller); err != nil {
				return err
			}
		}
		c, err := question.LoadActive(s, svc.engine.deps, questionID)
		if err != nil {
			return err
		}
		if fam := c.Question.Type.Family(); !slices.Contains(families, fam) {
			return domain.InvalidAction("%s is not available for %s questions", op, c.Question.Type)
		}
		return fn(c)
	})
}

var buzzerFamilies = []domain.Family{domain.FamilyRiddle, domain.FamilyQuote}

// Buzz queues the calling player.
func (svc *PlayService) Buzz(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.act(ctx, "Buzz", byPlayer, caller, gameID, questionID, buzzerFamilies, func(c *question.Context) error {
		if c.Question.Type.Family() == domain.FamilyQuote {
			return question.Quote{}.Buzz(c, caller.UserID)
		}
		return question.Riddle{}.Buzz(c, caller.UserID)
	})
}

// Unbuzz withdraws the calling player from the queue.
func (svc *PlayService) Unbuzz(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.act(ctx, "Unbuzz", byPlayer, caller, gameID, questionID, buzzerFamilies, func(c *question.Context) error {
		if c.Question.Type.Family() == domain.FamilyQuote {
			return question.Quote{}.Unbuzz(c, caller.UserID)
		}
		return question.Riddle{}.Unbuzz(c, caller.UserID)
	})
}

// ValidateBuzz accepts the answer of the player at the head of the queue.
func (svc *PlayService) ValidateBuzz(ctx context.Context, caller domain.Caller, gameID, questionID, playerID string) error {
	if playerID == "" {
		return domain.Precondition("player id is required")
	}
	return svc.act(ctx, "ValidateBuzz", byOrganizer, caller, gameID, questionID, []domain.Family{domain.FamilyRiddle}, func(c *question.Context) error {
		return question.Riddle{}.Validate(c, playerID)
	})
}

// InvalidateBuzz rejects the answer of the player at the head of the queue.
func (svc *PlayService) InvalidateBuzz(ctx context.Context, caller domain.Caller, gameID, questionID, playerID string) error {
	if playerID == "" {
		return domain.Precondition("player id is required")
	}
	return svc.act(ctx, "InvalidateBuzz", byOrganizer, caller, gameID, questionID, buzzerFamilies, func(c *question.Context) error {
		if c.Question.Type.Family() == domain.FamilyQuote {
			return question.Quote{}.Invalidate(c, playerID)
		}
		return question.Riddle{}.Invalidate(c, playerID)
	})
}

func (svc *PlayService) AdvanceClue(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.act(ctx, "AdvanceClue", byOrganizer, caller, gameID, questionID, []domain.Family{domain.FamilyRiddle}, func(c *question.Context) error {
		return question.Riddle{}.AdvanceClue(c)
	})
}

// RevealElement reveals one quote element, or one part of the quote. With
// attribute set the buzzing player at the head of the queue earns it.
func (svc *PlayService) RevealElement(ctx context.Context, caller domain.Caller, gameID, questionID, key string, part *int, attribute bool) error {
	if key == "" {
		return domain.Precondition("element key is required")
	}
	if part != nil && *part < 0 {
		return domain.IllegalChoice("quote part %d out of range", *part)
	}
	return svc.act(ctx, "RevealElement", byOrganizer, caller, gameID, questionID, []domain.Family{domain.FamilyQuote}, func(c *question.Context) error {
		return question.Quote{}.RevealElement(c, key, part, attribute)
	})
}

// ValidateAll credits every hidden quote element to playerID.
func (svc *PlayService) ValidateAll(ctx context.Context, caller domain.Caller, gameID, questionID, playerID string) error {
	if playerID == "" {
		return domain.Precondition("player id is required")
	}
	return svc.act(ctx, "ValidateAll", byOrganizer, caller, gameID, questionID, []domain.Family{domain.FamilyQuote}, func(c *question.Context) error {
		return question.Quote{}.ValidateAll(c, playerID)
	})
}

var enumerationFamily = []domain.Family{domain.FamilyEnumeration}

func (svc *PlayService) PlaceBet(ctx context.Context, caller domain.Caller, gameID, questionID string, value int) error {
	if value < 0 {
		return domain.IllegalChoice("bet %d must not be negative", value)
	}
	return svc.act(ctx, "PlaceBet", byPlayer, caller, gameID, questionID, enumerationFamily, func(c *question.Context) error {
		return question.Enumeration{}.PlaceBet(c, caller.UserID, value)
	})
}

func (svc *PlayService) EndBetting(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.act(ctx, "EndBetting", byOrganizer, caller, gameID, questionID, enumerationFamily, func(c *question.Context) error {
		return question.Enumeration{}.EndBetting(c)
	})
}

// CiteItem marks an item of the list as cited by the challenger.
func (svc *PlayService) CiteItem(ctx context.Context, caller domain.Caller, gameID, questionID string, idx int) error {
	if idx < 0 {
		return domain.IllegalChoice("item %d out of range", idx)
	}
	return svc.act(ctx, "CiteItem", byOrganizer, caller, gameID, questionID, enumerationFamily, func(c *question.Context) error {
		return question.Enumeration{}.CiteItem(c, idx)
	})
}

func (svc *PlayService) EndChallenge(ctx context.Context, caller domain.Caller, gameID, questionID string) error {
	return svc.act(ctx, "EndChallenge", byOrganizer, caller, gameID, questionID, enumerationFamily, func(c *question.Context) error {
		return question.Enumeration{}.EndChallenge(c)
	})
}

// SubmitPath proposes one row of the matching grid.
func (svc *PlayService) SubmitPath(ctx context.Context, caller domain.Caller, gameID, questionID string, edges []domain.MatchEdge) error {
	if len(edges) == 0 {
		return domain.Precondition("path is empty")
	}
	for _, e := range edges {
		if e.From.Col < 0 || e.From.Pos < 0 || e.To.Col < 0 || e.To.Pos < 0 {
			return domain.IllegalChoice("path node out of range")
		}
	}
	return svc.act(ctx, "SubmitPath", byPlayer, caller, gameID, questionID, []domain.Family{domain.FamilyMatching}, func(c *question.Context) error {
		return question.Matching{}.SubmitPath(c, caller.UserID, edges)
	})
}

var mcqFamily = []domain.Family{domain.FamilyMCQ}

// SelectOption picks the answer tier of a conditional question.
func (svc *PlayService) SelectOption(ctx context.Context, caller domain.Caller, gameID, questionID, option string) error {
	if !slices.Contains(domain.MCQOptions(), option) {
		return domain.IllegalChoice("unknown option %q", option)
	}
	return svc.act(ctx, "SelectOption", byPlayer, caller, gameID, questionID, mcqFamily, func(c *question.Context) error {
		return question.MCQ{}.SelectOption(c, caller.UserID, option)
	})
}

func (svc *PlayService) SelectChoice(ctx context.Context, caller domain.Caller, gameID, questionID string, idx int) error {
	if idx < 0 {
		return domain.IllegalChoice("choice %d out of range", idx)
	}
	return svc.act(ctx, "SelectChoice", byPlayer, caller, gameID, questionID, mcqFamily, func(c *question.Context) error {
		return question.MCQ{}.SelectChoice(c, caller.UserID, idx)
	})
}

// JudgeHidden settles an answer given without choices.
func (svc *PlayService) JudgeHidden(ctx context.Context, caller domain.Caller, gameID, questionID string, correct bool) error {
	return svc.act(ctx, "JudgeHidden", byOrganizer, caller, gameID, questionID, mcqFamily, func(c *question.Context) error {
		return question.MCQ{}.Judge(c, correct)
	})
}

func (svc *PlayService) SelectProposal(ctx context.Context, caller domain.Caller, gameID, questionID string, idx int) error {
	if idx < 0 {
		return domain.IllegalChoice("proposal %d out of range", idx)
	}
	return svc.act(ctx, "SelectProposal", byPlayer, caller, gameID, questionID, []domain.Family{domain.FamilyOddOneOut}, func(c *question.Context) error {
		return question.OddOneOut{}.SelectProposal(c, caller.UserID, idx)
	})
}

// SubmitAnswer records the organizer's verdict on the chooser team's answer.
func (svc *PlayService) SubmitAnswer(ctx context.Context, caller domain.Caller, gameID, questionID, teamID string, correct bool) error {
	if teamID == "" {
		return domain.Precondition("team id is required")
	}
	return svc.act(ctx, "SubmitAnswer", byOrganizer, caller, gameID, questionID, []domain.Family{domain.FamilyBasic}, func(c *question.Context) error {
		return question.Basic{}.SubmitAnswer(c, teamID, correct)
	})
}
