package game

const rushReputation = 60

func (e *Engine) decode(s State, act Action) (State, string, error) {
	next := s
	if !s.World.LeiaRescued {
		next.Commander.Alive = false
		return next, e.say("decode.no_rescue", next), nil
	}

	switch act.ID {
	case optDroid:
		next.World.DeathStarPlans = true
		next.Commander.GainReputation(10)
		next.Phase = Preparations{}
		return next, e.say("decode.droid", next), nil

	case optMeditation:
		if err := next.Commander.SpendForce(5); err != nil {
			return s, e.say("decode.meditation.short", s), err
		}
		next.World.DeathStarPlans = true
		next.Phase = Preparations{}
		if s.World.MentorAlive {
			next.Commander.GainReputation(25)
			next.Commander.GainForce(10)
			return next, e.say("decode.meditation.mentor", next), nil
		}
		next.Commander.GainReputation(15)
		return next, e.say("decode.meditation.alone", next), nil

	case optTechnicians:
		if err := next.Commander.SpendCredits(30); err != nil {
			return s, e.say("decode.technicians.short", s), err
		}
		next.World.DeathStarPlans = true
		next.World.AddShips(1)
		next.Phase = Preparations{}
		return next, e.say("decode.technicians.success", next), nil

	default:
		// A rushed analysis always uses up the phase.
		next.Phase = Preparations{}
		if s.Commander.Reputation >= rushReputation {
			next.World.DeathStarPlans = true
			return next, e.say("decode.rush.success", next), nil
		}
		next.World.DeathStarPlans = false
		next.Commander.LoseReputation(15)
		return next, e.say("decode.rush.failure", next), nil
	}
}
