package collectible

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

const DefaultDecayPeriod = 30 * 24 * time.Hour

var DefaultRateIncrementPct = decimal.NewFromInt(10)

type Terms struct {
	MintBaseFee         decimal.Decimal
	CreatorSignatureFee decimal.Decimal
	MaxMintsPerCycle    uint32
	RateIncrementPct    decimal.Decimal
	DecayPeriod         time.Duration
}

type TermsUpdate struct {
	MintBaseFee         decimal.Decimal
	CreatorSignatureFee decimal.Decimal
	MaxMintsPerCycle    uint32

	// nil keeps the current value
	RateIncrementPct *decimal.Decimal
	DecayPeriod      *time.Duration
}

func (t *Terms) Validate() error {
	for _, amt := range []decimal.Decimal{t.MintBaseFee, t.CreatorSignatureFee, t.RateIncrementPct} {
		if err := ValidateAmount(amt); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTerms, err)
		}
	}
	if t.MaxMintsPerCycle < 1 {
		return fmt.Errorf("%w: max mints per cycle %d", ErrInvalidTerms, t.MaxMintsPerCycle)
	}
	if t.DecayPeriod <= 0 {
		return fmt.Errorf("%w: decay period %s", ErrInvalidTerms, t.DecayPeriod)
	}
	return nil
}

// growth is the factor applied to the previous fee on every mint in a cycle.
func (t *Terms) growth() decimal.Decimal {
	return decimal.NewFromInt(1).Add(t.RateIncrementPct.Div(decimal.NewFromInt(100)))
}

func (eng *Engine) Terms() (*Terms, error) {
	terms, err := eng.store.ReadTerms()
	if err != nil {
		return nil, err
	}
	if terms == nil {
		panic("collectible: terms not seeded")
	}
	return terms, nil
}

// UpdateTerms replaces the terms as a whole. Mint cycles already in progress
// are quoted with the new terms from the next call on.
func (eng *Engine) UpdateTerms(ctx context.Context, call *Call, up *TermsUpdate) (*Terms, error) {
	if err := eng.checkCall(call); err != nil {
		return nil, err
	}
	if err := eng.requireRole(RoleAdmin, call.Sender); err != nil {
		return nil, err
	}
	old, err := eng.Terms()
	if err != nil {
		return nil, err
	}
	terms := &Terms{
		MintBaseFee:         up.MintBaseFee,
		CreatorSignatureFee: up.CreatorSignatureFee,
		MaxMintsPerCycle:    up.MaxMintsPerCycle,
		RateIncrementPct:    old.RateIncrementPct,
		DecayPeriod:         old.DecayPeriod,
	}
	if up.RateIncrementPct != nil {
		terms.RateIncrementPct = *up.RateIncrementPct
	}
	if up.DecayPeriod != nil {
		terms.DecayPeriod = *up.DecayPeriod
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	err = eng.store.WriteTerms(terms)
	if err != nil {
		return nil, err
	}
	logger.Printf("Engine.UpdateTerms(%s) => %v\n", call.Sender, *terms)
	return terms, nil
}
