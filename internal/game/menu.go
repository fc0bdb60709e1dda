package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Requirement gates a menu action. Each variant carries only what it checks.
type Requirement interface {
	Met(s State) bool
	Describe() string
	Cost() string
}

type Always struct{}

type MinReputation struct{ N int }

// Recommended never blocks the action; the handler judges the reputation.
type Recommended struct{ Reputation int }

type CreditCost struct{ N int }

type ForceCost struct{ N int }

type NeedPlans struct{}

type MinFleet struct{ Ships, Pilots int }

func (Always) Met(State) bool   { return true }
func (Always) Describe() string { return "nothing" }
func (Always) Cost() string     { return "" }

func (r MinReputation) Met(s State) bool { return s.Commander.Reputation >= r.N }
func (r MinReputation) Describe() string { return fmt.Sprintf("reputation %d", r.N) }
func (MinReputation) Cost() string       { return "" }

func (Recommended) Met(State) bool     { return true }
func (r Recommended) Describe() string { return fmt.Sprintf("%d+ reputation recommended", r.Reputation) }
func (Recommended) Cost() string       { return "" }

func (r CreditCost) Met(s State) bool { return s.Commander.Credits >= r.N }
func (r CreditCost) Describe() string { return fmt.Sprintf("%d credits", r.N) }
func (r CreditCost) Cost() string     { return fmt.Sprintf("%d credits", r.N) }

func (r ForceCost) Met(s State) bool { return s.Commander.ForcePoints >= r.N }
func (r ForceCost) Describe() string { return fmt.Sprintf("%d force points", r.N) }
func (r ForceCost) Cost() string     { return fmt.Sprintf("%d force points", r.N) }

func (NeedPlans) Met(s State) bool { return s.World.DeathStarPlans }
func (NeedPlans) Describe() string { return "the Death Star plans" }
func (NeedPlans) Cost() string     { return "" }

func (r MinFleet) Met(s State) bool {
	return s.World.Ships >= r.Ships && s.World.Pilots >= r.Pilots
}
func (r MinFleet) Describe() string { return fmt.Sprintf("%d ships and %d pilots", r.Ships, r.Pilots) }
func (MinFleet) Cost() string       { return "" }

// Action is one numbered menu entry of a phase.
type Action struct {
	ID       int
	Label    string
	Requires Requirement
	// Readout actions never mutate state.
	Readout bool
}

// MenuItem is an Action rendered against a state.
type MenuItem struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	Cost      string `json:"cost,omitempty"`
	Requires  string `json:"requires,omitempty"`
	Available bool   `json:"available"`
}

const (
	optStealth = iota + 1
	optMercenaries
	optAssault
	optIntel
)

const (
	optDroid = iota + 1
	optMeditation
	optTechnicians
	optRush
)

const (
	optTrainPilots = iota + 1
	optUpgradeFleet
	optRecruitAllies
	optForceTraining
	optPrepStatus
)

const (
	optPrecisionRun = iota + 1
	optTrustForce
	optMassAssault
	optGambit
)

var rescueActions = []Action{
	{ID: optStealth, Label: "Stealth infiltration of the detention block", Requires: Recommended{Reputation: stealthReputation}},
	{ID: optMercenaries, Label: "Hire mercenaries", Requires: CreditCost{N: 50}},
	{ID: optAssault, Label: "Direct assault", Requires: MinReputation{N: 70}},
	{ID: optIntel, Label: "Review intel", Requires: Always{}, Readout: true},
}

var decodeActions = []Action{
	{ID: optDroid, Label: "Have a protocol droid decode the plans", Requires: Always{}},
	{ID: optMeditation, Label: "Meditate on the Force", Requires: ForceCost{N: 5}},
	{ID: optTechnicians, Label: "Hire technicians", Requires: CreditCost{N: 30}},
	{ID: optRush, Label: "Rush the analysis", Requires: Recommended{Reputation: rushReputation}},
}

var prepareActions = []Action{
	{ID: optTrainPilots, Label: "Train new pilots", Requires: Always{}},
	{ID: optUpgradeFleet, Label: "Upgrade the fleet", Requires: CreditCost{N: 40}},
	{ID: optRecruitAllies, Label: "Recruit allies", Requires: Always{}},
	{ID: optForceTraining, Label: "Train in the Force", Requires: Always{}},
	{ID: optPrepStatus, Label: "Review readiness", Requires: Always{}, Readout: true},
}

var battleActions = []Action{
	{ID: optPrecisionRun, Label: "Precision trench run", Requires: NeedPlans{}},
	{ID: optTrustForce, Label: "Trust the Force", Requires: ForceCost{N: 20}},
	{ID: optMassAssault, Label: "Mass assault", Requires: MinFleet{Ships: 6, Pilots: 10}},
	{ID: optGambit, Label: "Desperate gambit", Requires: Always{}},
}

// Menu renders the current phase's actions. Availability is computed here and
// never stored.
func Menu(s State) []MenuItem {
	if s.Phase == nil {
		return nil
	}
	if s.missionFailed() {
		return []MenuItem{}
	}
	acts := s.Phase.actions()
	items := make([]MenuItem, 0, len(acts))
	for _, a := range acts {
		item := MenuItem{
			ID:        a.ID,
			Label:     a.Label,
			Cost:      a.Requires.Cost(),
			Available: a.Requires.Met(s),
		}
		if _, free := a.Requires.(Always); !free {
			item.Requires = a.Requires.Describe()
		}
		items = append(items, item)
	}
	return items
}

func findAction(acts []Action, id int) (Action, bool) {
	for _, a := range acts {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// ParseChoice reads a menu number typed by a player.
func ParseChoice(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidChoice, v)
	}
	return n, nil
}

func requirementError(a Action) error {
	return fmt.Errorf("%w: %s needs %s", ErrRequirementNotMet, strings.ToLower(a.Label), a.Requires.Describe())
}
