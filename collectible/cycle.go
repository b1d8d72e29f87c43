package collectible

import "time"

type MintCycle struct {
	Creator      string
	MintsInCycle uint32
	CycleStart   time.Time
}

// active reports whether mc still accumulates at now. A cycle ends once the
// decay period has elapsed since its start or once the cap is reached.
func (mc *MintCycle) active(terms *Terms, now time.Time) bool {
	if mc == nil || mc.MintsInCycle == 0 {
		return false
	}
	if now.Sub(mc.CycleStart) >= terms.DecayPeriod {
		return false
	}
	return mc.MintsInCycle < terms.MaxMintsPerCycle
}

// next returns the cycle state after one more mint at now. The mint that
// starts a fresh cycle counts as its first.
func (mc *MintCycle) next(creator string, terms *Terms, now time.Time) *MintCycle {
	if !mc.active(terms, now) {
		return &MintCycle{
			Creator:      creator,
			MintsInCycle: 1,
			CycleStart:   now,
		}
	}
	return &MintCycle{
		Creator:      creator,
		MintsInCycle: mc.MintsInCycle + 1,
		CycleStart:   mc.CycleStart,
	}
}

func (eng *Engine) MintCycle(creator string) (*MintCycle, error) {
	return eng.store.ReadMintCycle(creator)
}
