package domain

import "slices"

type PlayerStatus string

const (
	PlayerStatusIdle    PlayerStatus = "idle"
	PlayerStatusFocus   PlayerStatus = "focus"
	PlayerStatusReady   PlayerStatus = "ready"
	PlayerStatusCorrect PlayerStatus = "correct"
	PlayerStatusWrong   PlayerStatus = "wrong"
)

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Player struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	TeamID string       `json:"teamId"`
	Status PlayerStatus `json:"status"`
}

// Roster is the teams and players of one game.
type Roster struct {
	Teams   []Team            `json:"teams"`
	Players map[string]Player `json:"players"`
}

func (r *Roster) TeamIDs() []string {
	ids := make([]string, len(r.Teams))
	for i, t := range r.Teams {
		ids[i] = t.ID
	}
	return ids
}

func (r *Roster) HasTeam(teamID string) bool {
	return slices.ContainsFunc(r.Teams, func(t Team) bool { return t.ID == teamID })
}

func (r *Roster) Player(playerID string) (Player, bool) {
	p, ok := r.Players[playerID]
	return p, ok
}

// TeamPlayers returns the ids of the players of a team, sorted.
func (r *Roster) TeamPlayers(teamID string) []string {
	var ids []string
	for id, p := range r.Players {
		if p.TeamID == teamID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (r *Roster) SetStatus(playerID string, status PlayerStatus) {
	if p, ok := r.Players[playerID]; ok {
		p.Status = status
		r.Players[playerID] = p
	}
}

func (r *Roster) SetAllStatus(status PlayerStatus) {
	for id, p := range r.Players {
		p.Status = status
		r.Players[id] = p
	}
}

func (r *Roster) SetTeamStatus(teamID string, status PlayerStatus) {
	for id, p := range r.Players {
		if p.TeamID == teamID {
			p.Status = status
			r.Players[id] = p
		}
	}
}
