package collectible

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteFee computes the fee owed for the next mint of a creator whose cycle
// state is cycle. Within an active cycle every prior mint multiplies the
// previous fee by the growth factor, truncated to AmountPrecision. Outside
// of one the fee is the base fee. The only failure is ErrArithmeticOverflow.
func QuoteFee(terms *Terms, cycle *MintCycle, now time.Time) (decimal.Decimal, error) {
	fee := terms.MintBaseFee
	if !cycle.active(terms, now) || fee.IsZero() {
		return fee, nil
	}
	growth := terms.growth()
	for i := uint32(0); i < cycle.MintsInCycle; i++ {
		next := fee.Mul(growth).Truncate(AmountPrecision)
		if next.GreaterThan(MaxAmount) {
			return decimal.Zero, fmt.Errorf("%w: mint fee after %d mints", ErrArithmeticOverflow, cycle.MintsInCycle)
		}
		if next.Equal(fee) {
			break
		}
		fee = next
	}
	return fee, nil
}

func (eng *Engine) MintFee(creator string, now time.Time) (decimal.Decimal, error) {
	terms, err := eng.Terms()
	if err != nil {
		return decimal.Zero, err
	}
	cycle, err := eng.store.ReadMintCycle(creator)
	if err != nil {
		return decimal.Zero, err
	}
	return QuoteFee(terms, cycle, now)
}
