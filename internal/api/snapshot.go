package api

import (
	"rebel-command/internal/game"
	"rebel-command/internal/session"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is the rendered view of one session.
type Snapshot struct {
	ID               string          `json:"id"`
	Commander        game.Commander  `json:"commander"`
	World            game.World      `json:"world"`
	CurrentPhase     int             `json:"current_phase"`
	PhaseName        string          `json:"phase_name"`
	PhaseTitle       string          `json:"phase_title"`
	PhaseDescription string          `json:"phase_description"`
	GameOver         bool            `json:"game_over"`
	Ending           string          `json:"ending,omitempty"`
	EndingText       string          `json:"ending_text,omitempty"`
	PreparationsMade int             `json:"preparations_made"`
	SuccessChance    *int            `json:"success_chance,omitempty"`
	Menu             []game.MenuItem `json:"menu"`
	Message          string          `json:"message,omitempty"`
	Accepted         *bool           `json:"accepted,omitempty"`
	Log              []session.Entry `json:"log"`
	Version          int64           `json:"version"`
}

func buildSnapshot(e *game.Engine, rec session.Record) Snapshot {
	s := rec.State
	text := e.Describe(s)
	snap := Snapshot{
		ID:               rec.ID,
		Commander:        s.Commander,
		World:            s.World,
		CurrentPhase:     s.CurrentPhase(),
		PhaseName:        s.Phase.Name(),
		PhaseTitle:       text.Title,
		PhaseDescription: text.Description,
		GameOver:         s.GameOver(),
		Ending:           string(s.Ending()),
		EndingText:       e.EndingText(s),
		PreparationsMade: s.PreparationsMade(),
		Menu:             game.Menu(s),
		Log:              rec.Log,
		Version:          rec.Version,
	}
	if _, ok := s.Phase.(game.FinalBattle); ok {
		chance := e.DisplayChance(s)
		snap.SuccessChance = &chance
	}
	if snap.Menu == nil {
		snap.Menu = []game.MenuItem{}
	}
	if snap.Log == nil {
		snap.Log = []session.Entry{}
	}
	return snap
}

func withOutcome(snap Snapshot, msg string, accepted bool) Snapshot {
	snap.Message = msg
	snap.Accepted = &accepted
	return snap
}
