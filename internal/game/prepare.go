package game

const alliesReputation = 50

func (e *Engine) prepare(s State, p Preparations, act Action) (State, string, error) {
	if act.Readout {
		return s, e.say("prepare.status", s), nil
	}
	next := s
	if p.Made >= preparationsNeeded {
		next.Phase = FinalBattle{}
		return next, e.say("prepare.complete", next), nil
	}

	var key string
	switch act.ID {
	case optTrainPilots:
		next.World.AddPilots(2)
		key = "prepare.pilots"
	case optUpgradeFleet:
		if err := next.Commander.SpendCredits(40); err != nil {
			return s, e.say("prepare.fleet.short", s), err
		}
		next.World.AddShips(1)
		key = "prepare.fleet.success"
	case optRecruitAllies:
		if s.Commander.Reputation >= alliesReputation {
			next.World.AddPilots(3)
			key = "prepare.allies.strong"
		} else {
			next.World.AddPilots(1)
			key = "prepare.allies.weak"
		}
	case optForceTraining:
		next.Commander.GainForce(15)
		key = "prepare.training.alone"
		if s.World.MentorAlive {
			next.Commander.GainForce(10)
			key = "prepare.training.mentor"
		}
	}

	made := p.Made + 1
	if made < preparationsNeeded {
		next.Phase = Preparations{Made: made}
		return next, e.say(key, next), nil
	}
	next.Phase = FinalBattle{}
	return next, e.say(key, next) + " " + e.say("prepare.ready", next), nil
}
