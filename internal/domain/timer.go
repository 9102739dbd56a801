package domain

import "time"

type TimerStatus string

const (
	TimerStatusReset TimerStatus = "reset"
	TimerStatusStart TimerStatus = "start"
	TimerStatusStop  TimerStatus = "stop"
	TimerStatusEnd   TimerStatus = "end"
)

type TimerDirection string

const (
	TimerForward  TimerDirection = "forward"
	TimerBackward TimerDirection = "backward"
)

// TimerState describes the shared countdown. Clients count down on their
// own; only ManagedBy may report expiry, and only for the current Generation.
type TimerState struct {
	Status          TimerStatus    `json:"status"`
	DurationSeconds int            `json:"durationSeconds"`
	Direction       TimerDirection `json:"direction"`
	Authorized      bool           `json:"authorized"`
	ManagedBy       string         `json:"managedBy"`
	Timestamp       time.Time      `json:"timestamp"`
	Generation      int64          `json:"generation"`
}

// ChooserState is the team turn order and its cursor.
type ChooserState struct {
	Order []string `json:"order"`
	Index int      `json:"index"`
}

type SoundCue struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// SoundQueue is append-only. Clients play cues they have not seen yet.
type SoundQueue struct {
	Cues []SoundCue `json:"cues"`
}

// Sound cue names.
const (
	SoundBuzz      = "buzz"
	SoundCorrect   = "correct"
	SoundWrong     = "wrong"
	SoundTimeUp    = "time_up"
	SoundRoundEnd  = "round_end"
	SoundGameStart = "game_start"
	SoundGameEnd   = "game_end"
)
