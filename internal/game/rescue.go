package game

const stealthReputation = 40

func (e *Engine) rescue(s State, act Action) (State, string, error) {
	next := s
	switch act.ID {
	case optStealth:
		if s.Commander.Reputation < stealthReputation {
			next.Commander.LoseReputation(10)
			return next, e.say("rescue.stealth.failure", next), nil
		}
		next.World.LeiaRescued = true
		next.World.MentorAlive = false
		next.Commander.GainReputation(20)
		next.Commander.GainForce(10)
		next.Phase = DecodePlans{}
		return next, e.say("rescue.stealth.success", next), nil

	case optMercenaries:
		if err := next.Commander.SpendCredits(50); err != nil {
			return s, e.say("rescue.mercenaries.short", s), err
		}
		next.World.LeiaRescued = true
		next.World.AddShips(1)
		next.Commander.GainReputation(15)
		next.Phase = DecodePlans{}
		return next, e.say("rescue.mercenaries.success", next), nil

	case optAssault:
		if !act.Requires.Met(s) {
			return s, e.say("rescue.assault.short", s), requirementError(act)
		}
		next.World.LeiaRescued = true
		next.World.AddShips(-2)
		next.World.AddPilots(-3)
		next.Commander.GainReputation(30)
		next.Phase = DecodePlans{}
		return next, e.say("rescue.assault.success", next), nil

	default:
		return s, e.say("rescue.intel", s), nil
	}
}
