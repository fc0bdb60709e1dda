package game

import (
	"encoding/json"
	"fmt"
)

type stateRecord struct {
	Commander Commander   `json:"commander"`
	World     World       `json:"world"`
	Phase     PhaseRecord `json:"phase"`
}

func (s State) MarshalJSON() ([]byte, error) {
	if s.Phase == nil {
		return nil, fmt.Errorf("marshal state: missing phase")
	}
	return json.Marshal(stateRecord{
		Commander: s.Commander,
		World:     s.World,
		Phase:     EncodePhase(s.Phase),
	})
}

func (s *State) UnmarshalJSON(b []byte) error {
	var rec stateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	phase, err := DecodePhase(rec.Phase)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	*s = State{Commander: rec.Commander, World: rec.World, Phase: phase}
	return nil
}
