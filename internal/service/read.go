package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dom/trivia-night/internal/domain"
)

// AuthorizeRead decides whether caller may read or subscribe to key.
// Question definitions and finale themes hold the answers, so only
// organizers see them. Game documents are visible to everyone in the game.
func (e *Engine) AuthorizeRead(ctx context.Context, caller domain.Caller, key string) error {
	if key == "" {
		return domain.Precondition("document key is required")
	}
	switch domain.Collection(key) {
	case "questions", "themes":
		if !caller.IsOrganizer() {
			return domain.InvalidAction("only organizers may read %s", key)
		}
		return nil
	}

	gameID, ok := domain.GameIDOf(key)
	if !ok {
		return domain.IllegalChoice("unknown document %s", key)
	}
	if caller.IsOrganizer() {
		var g domain.Game
		if err := e.store.Read(ctx, domain.GameKey(gameID), &g); err != nil {
			return err
		}
		if g.OrganizerID != caller.UserID {
			return domain.InvalidAction("game %s belongs to another organizer", gameID)
		}
		return nil
	}
	if caller.GameID != gameID {
		return domain.InvalidAction("not a member of game %s", gameID)
	}
	return nil
}

// ReadDocument returns the committed content of key if caller may see it.
func (e *Engine) ReadDocument(ctx context.Context, caller domain.Caller, key string) (json.RawMessage, error) {
	if err := e.AuthorizeRead(ctx, caller, key); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := e.store.Read(ctx, key, &raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}
