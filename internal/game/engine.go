package game

import (
	"fmt"
	"math/rand/v2"
)

const maxDisplayChance = 95

// ChanceFunc computes the final battle success chance used for threshold checks.
type ChanceFunc func(State) int

// GambitFunc decides whether the desperate gambit destroys the station.
type GambitFunc func(State) bool

// Engine advances sessions. It holds no session state and is safe for
// concurrent use.
type Engine struct {
	narrative *Narrative
	chance    ChanceFunc
	gambit    GambitFunc
}

type EngineOption func(*Engine)

func WithNarrative(n *Narrative) EngineOption {
	return func(e *Engine) {
		if n != nil {
			e.narrative = n
		}
	}
}

func WithChance(fn ChanceFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.chance = fn
		}
	}
}

func WithGambit(fn GambitFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.gambit = fn
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		narrative: DefaultNarrative(),
		chance:    SuccessChance,
		gambit:    ParityGambit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SuccessChance is the uncapped final battle estimate.
func SuccessChance(s State) int {
	chance := 30
	if s.World.DeathStarPlans {
		chance += 30
	}
	if s.World.Ships >= 8 {
		chance += 20
	}
	if s.World.Pilots >= 12 {
		chance += 15
	}
	if s.Commander.Reputation >= 70 {
		chance += 20
	}
	return chance
}

// ParityGambit succeeds on even reputation.
func ParityGambit(s State) bool {
	return s.Commander.Reputation%2 == 0
}

func RandomGambit(State) bool {
	return rand.IntN(2) == 0
}

// GambitByName maps a configured mode to its rule.
func GambitByName(name string) (GambitFunc, error) {
	switch name {
	case "", "parity":
		return ParityGambit, nil
	case "random":
		return RandomGambit, nil
	default:
		return nil, fmt.Errorf("unknown gambit mode %q", name)
	}
}

// DisplayChance is the success chance as shown to players.
func (e *Engine) DisplayChance(s State) int {
	return minInt(e.chance(s), maxDisplayChance)
}

// Describe returns the title and description of the state's phase.
func (e *Engine) Describe(s State) PhaseText {
	key := s.Phase.key()
	if s.missionFailed() {
		key = "decode_failed"
	}
	return e.narrative.phaseText(key, e.view(s))
}

// EndingText is the closing banner for an ended session, or "" while it runs.
func (e *Engine) EndingText(s State) string {
	ending := s.Ending()
	if ending == "" {
		return ""
	}
	return e.say("ending."+string(ending), s)
}

// Advance applies one menu choice to s and returns the next state with the
// outcome message. On error the returned state is s unchanged and the message
// explains why.
func (e *Engine) Advance(s State, choice int) (State, string, error) {
	if s.GameOver() {
		return s, e.say("game.over", s), ErrGameOver
	}
	act, ok := findAction(s.Phase.actions(), choice)
	if !ok {
		return s, e.say("choice.invalid", s), fmt.Errorf("%w: %d", ErrInvalidChoice, choice)
	}

	var (
		next State
		msg  string
		err  error
	)
	switch p := s.Phase.(type) {
	case Rescue:
		next, msg, err = e.rescue(s, act)
	case DecodePlans:
		next, msg, err = e.decode(s, act)
	case Preparations:
		next, msg, err = e.prepare(s, p, act)
	case FinalBattle:
		next, msg, err = e.battle(s, act)
	default:
		return s, e.say("choice.invalid", s), fmt.Errorf("%w: phase %T has no menu", ErrInvalidChoice, p)
	}
	if err != nil {
		return s, msg, err
	}

	if !next.Commander.Alive && !next.GameOver() {
		next.Phase = Ended{From: s.Phase.Number(), Ending: EndingDefeat}
	}
	return next, msg, nil
}

func (e *Engine) say(key string, s State) string {
	return e.narrative.say(key, e.view(s))
}

func (e *Engine) view(s State) narrativeView {
	return narrativeView{
		C:      s.Commander,
		W:      s.World,
		Chance: e.DisplayChance(s),
		Made:   s.PreparationsMade(),
		Need:   preparationsNeeded,
	}
}

// Apply parses a typed choice and advances. Unparsable input is an invalid
// choice and leaves s unchanged.
func (e *Engine) Apply(s State, raw string) (State, string, error) {
	if s.GameOver() {
		return s, e.say("game.over", s), ErrGameOver
	}
	choice, err := ParseChoice(raw)
	if err != nil {
		return s, e.say("choice.invalid", s), err
	}
	return e.Advance(s, choice)
}
