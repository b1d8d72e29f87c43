package host

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionStateInitial = 10
	ActionStateDone    = 11
	ActionStateFailed  = 12
)

// Action is the log entry of one call executed by the host.
type Action struct {
	TraceId   string
	Method    string
	Sender    string
	Value     decimal.Decimal
	State     int
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (act *Action) StateName() string {
	switch act.State {
	case ActionStateInitial:
		return "initial"
	case ActionStateDone:
		return "done"
	case ActionStateFailed:
		return "failed"
	}
	panic(act.State)
}

func (h *Host) writeAction(act *Action, state int, reason string, now time.Time) {
	act.State = state
	act.Reason = reason
	act.UpdatedAt = now
	err := h.store.WriteAction(act)
	if err != nil {
		panic(err)
	}
}
