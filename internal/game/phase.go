package game

import "fmt"

const preparationsNeeded = 2

// Phase is the tagged stage of a session. Only the types in this file
// implement it.
type Phase interface {
	Number() int
	Name() string
	key() string
	actions() []Action
}

type Rescue struct{}

type DecodePlans struct{}

// Preparations carries the phase-local count of completed preparation actions.
type Preparations struct {
	Made int
}

type FinalBattle struct{}

// Ended is terminal. From is the phase number the game ended in.
type Ended struct {
	From   int
	Ending Ending
}

type Ending string

const (
	EndingVictory   Ending = "victory"
	EndingSacrifice Ending = "sacrifice"
	EndingDefeat    Ending = "defeat"
	EndingAbandoned Ending = "abandoned"
)

func (Rescue) Number() int       { return 1 }
func (DecodePlans) Number() int  { return 2 }
func (Preparations) Number() int { return 3 }
func (FinalBattle) Number() int  { return 4 }
func (e Ended) Number() int      { return e.From }

func (Rescue) Name() string       { return "Rescue" }
func (DecodePlans) Name() string  { return "Decode the Plans" }
func (Preparations) Name() string { return "Preparations" }
func (FinalBattle) Name() string  { return "Final Battle" }
func (Ended) Name() string        { return "Ended" }

func (Rescue) key() string       { return "rescue" }
func (DecodePlans) key() string  { return "decode" }
func (Preparations) key() string { return "prepare" }
func (FinalBattle) key() string  { return "battle" }
func (Ended) key() string        { return "ended" }

func (Rescue) actions() []Action       { return rescueActions }
func (DecodePlans) actions() []Action  { return decodeActions }
func (Preparations) actions() []Action { return prepareActions }
func (FinalBattle) actions() []Action  { return battleActions }
func (Ended) actions() []Action        { return nil }

// Abandon ends a live session without a battle outcome.
func Abandon(s State) State {
	if s.GameOver() {
		return s
	}
	s.Phase = Ended{From: s.Phase.Number(), Ending: EndingAbandoned}
	return s
}

// Ending reports how the session ended, or "" while it is still running.
func (s State) Ending() Ending {
	if e, ok := s.Phase.(Ended); ok {
		return e.Ending
	}
	return ""
}

// PreparationsMade counts completed preparations. Once the fleet has
// launched it stays at the full count.
func (s State) PreparationsMade() int {
	switch p := s.Phase.(type) {
	case Preparations:
		return p.Made
	case FinalBattle:
		return preparationsNeeded
	case Ended:
		if p.From == 4 {
			return preparationsNeeded
		}
	}
	return 0
}

// missionFailed reports a decode phase reached without the rescue. Any
// choice there only seals the defeat.
func (s State) missionFailed() bool {
	_, decoding := s.Phase.(DecodePlans)
	return decoding && !s.World.LeiaRescued
}

// PhaseRecord is the storage shape of a Phase.
type PhaseRecord struct {
	Stage  string `json:"stage"`
	Made   int    `json:"made,omitempty"`
	From   int    `json:"from,omitempty"`
	Ending Ending `json:"ending,omitempty"`
}

func EncodePhase(p Phase) PhaseRecord {
	rec := PhaseRecord{Stage: p.key()}
	switch v := p.(type) {
	case Preparations:
		rec.Made = v.Made
	case Ended:
		rec.From = v.From
		rec.Ending = v.Ending
	}
	return rec
}

func DecodePhase(rec PhaseRecord) (Phase, error) {
	switch rec.Stage {
	case "rescue":
		return Rescue{}, nil
	case "decode":
		return DecodePlans{}, nil
	case "prepare":
		if rec.Made < 0 || rec.Made > preparationsNeeded {
			return nil, fmt.Errorf("preparations made %d out of range", rec.Made)
		}
		return Preparations{Made: rec.Made}, nil
	case "battle":
		return FinalBattle{}, nil
	case "ended":
		if rec.From < 1 || rec.From > 4 {
			return nil, fmt.Errorf("ended phase %d out of range", rec.From)
		}
		switch rec.Ending {
		case EndingVictory, EndingSacrifice, EndingDefeat, EndingAbandoned:
		default:
			return nil, fmt.Errorf("unknown ending %q", rec.Ending)
		}
		return Ended{From: rec.From, Ending: rec.Ending}, nil
	default:
		return nil, fmt.Errorf("unknown phase stage %q", rec.Stage)
	}
}
