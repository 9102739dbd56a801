package domain

import "strings"

// Document keys. Every entity lives in one named document addressed by a
// slash-separated path.

func GameKey(gameID string) string { return "games/" + gameID }
func RosterKey(gameID string) string { return "games/" + gameID + "/roster" }
func ChooserKey(gameID string) string { return "games/" + gameID + "/chooser" }
func TimerKey(gameID string) string { return "games/" + gameID + "/timer" }
func SoundsKey(gameID string) string { return "games/" + gameID + "/sounds" }
func GameScoresKey(gameID string) string { return "games/" + gameID + "/scores" }
func FinaleKey(gameID string) string { return "games/" + gameID + "/finale" }
func QuestionKey(questionID string) string { return "questions/" + questionID }
func ThemeKey(themeID string) string { return "themes/" + themeID }

func RoundKey(gameID, roundID string) string {
	return "games/" + gameID + "/rounds/" + roundID
}

func RoundScoresKey(gameID, roundID string) string {
	return RoundKey(gameID, roundID) + "/scores"
}

func QuestionStateKey(gameID, roundID, questionID string) string {
	return RoundKey(gameID, roundID) + "/questions/" + questionID
}

// Collection names the entity kind of a key: the last collection segment,
// or the trailing singleton name for per-game documents like "roster".
func Collection(key string) string {
	parts := strings.Split(key, "/")
	switch {
	case len(parts) == 2:
		return parts[0]
	case len(parts)%2 == 1:
		return parts[len(parts)-1]
	default:
		return parts[len(parts)-2]
	}
}

// GameIDOf extracts the game id of a game-scoped key.
func GameIDOf(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[0] != "games" {
		return "", false
	}
	return parts[1], true
}
