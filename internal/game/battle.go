package game

func (e *Engine) battle(s State, act Action) (State, string, error) {
	next := s
	// Every branch that gets past its requirement ends the game.
	switch act.ID {
	case optPrecisionRun:
		if !act.Requires.Met(s) {
			return s, e.say("battle.precision.short", s), requirementError(act)
		}
		if e.chance(s) >= 60 {
			next.Commander.GainReputation(50)
			next.Phase = Ended{From: 4, Ending: EndingVictory}
			return next, e.say("battle.precision.success", next), nil
		}
		next.Commander.Alive = false
		next.Phase = Ended{From: 4, Ending: EndingDefeat}
		return next, e.say("battle.precision.failure", next), nil

	case optTrustForce:
		if !act.Requires.Met(s) {
			return s, e.say("battle.force.short", s), requirementError(act)
		}
		next.Commander.GainReputation(75)
		next.Phase = Ended{From: 4, Ending: EndingVictory}
		return next, e.say("battle.force.success", next), nil

	case optMassAssault:
		if !act.Requires.Met(s) {
			return s, e.say("battle.assault.short", s), requirementError(act)
		}
		if e.chance(s) >= 50 {
			next.World.AddPilots(-5)
			next.World.AddShips(-3)
			next.Phase = Ended{From: 4, Ending: EndingVictory}
			return next, e.say("battle.assault.success", next), nil
		}
		next.Commander.Alive = false
		next.Phase = Ended{From: 4, Ending: EndingDefeat}
		return next, e.say("battle.assault.failure", next), nil

	default:
		next.Commander.Alive = false
		if e.gambit(s) {
			next.Phase = Ended{From: 4, Ending: EndingSacrifice}
			return next, e.say("battle.gambit.success", next), nil
		}
		next.Phase = Ended{From: 4, Ending: EndingDefeat}
		return next, e.say("battle.gambit.failure", next), nil
	}
}
