package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxReputation  = 100
	maxNameRunes   = 40
	startingRep    = 50
	startingCredit = 100
	startingShips  = 5
	startingPilots = 8
)

var (
	ErrInvalidChoice       = errors.New("invalid choice")
	ErrGameOver            = errors.New("game is over")
	ErrRequirementNotMet   = errors.New("requirement not met")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInsufficientForce   = errors.New("insufficient force points")
	ErrEmptyName           = errors.New("commander name is required")
)

type Commander struct {
	Name        string `json:"name"`
	Reputation  int    `json:"reputation"`
	ForcePoints int    `json:"force_points"`
	Credits     int    `json:"credits"`
	Alive       bool   `json:"alive"`
}

type World struct {
	Ships          int  `json:"ships_available"`
	Pilots         int  `json:"pilots_available"`
	DeathStarPlans bool `json:"death_star_plans"`
	LeiaRescued    bool `json:"leia_rescued"`
	MentorAlive    bool `json:"mentor_alive"`
}

// State is one session's full game state. It is a value: handlers take a copy
// and return the mutated copy.
type State struct {
	Commander Commander
	World     World
	Phase     Phase
}

// NewState starts a fresh session for the named commander.
func NewState(name string) (State, error) {
	name, err := normalizeName(name)
	if err != nil {
		return State{}, err
	}
	return State{
		Commander: Commander{
			Name:       name,
			Reputation: startingRep,
			Credits:    startingCredit,
			Alive:      true,
		},
		World: World{
			Ships:       startingShips,
			Pilots:      startingPilots,
			MentorAlive: true,
		},
		Phase: Rescue{},
	}, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name, nil
}

func (s State) GameOver() bool {
	_, ended := s.Phase.(Ended)
	return ended
}

// CurrentPhase reports 1-4; an ended game reports the phase it ended in.
func (s State) CurrentPhase() int {
	return s.Phase.Number()
}

func (c *Commander) GainReputation(n int) {
	c.Reputation = clampInt(c.Reputation+n, 0, maxReputation)
}

func (c *Commander) LoseReputation(n int) {
	c.Reputation = clampInt(c.Reputation-n, 0, maxReputation)
}

func (c *Commander) GainForce(n int) {
	c.ForcePoints = maxInt(0, c.ForcePoints+n)
}

// SpendCredits rejects the spend outright when the balance is short.
func (c *Commander) SpendCredits(n int) error {
	if n > c.Credits {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCredits, n, c.Credits)
	}
	c.Credits -= n
	return nil
}

func (c *Commander) SpendForce(n int) error {
	if n > c.ForcePoints {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientForce, n, c.ForcePoints)
	}
	c.ForcePoints -= n
	return nil
}

func (w *World) AddShips(n int) {
	w.Ships = maxInt(0, w.Ships+n)
}

func (w *World) AddPilots(n int) {
	w.Pilots = maxInt(0, w.Pilots+n)
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
