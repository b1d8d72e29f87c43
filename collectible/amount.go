package collectible

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const AmountPrecision = 8

// MaxAmount is the largest value representable in 64 bits of 1e-8 units.
var MaxAmount = decimal.RequireFromString("184467440737.09551615")

func ValidateAmount(amt decimal.Decimal) error {
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative %s", ErrInvalidAmount, amt)
	}
	if !amt.Equal(amt.Truncate(AmountPrecision)) {
		return fmt.Errorf("%w: precision %s", ErrInvalidAmount, amt)
	}
	if amt.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s", ErrArithmeticOverflow, amt)
	}
	return nil
}

func ValidateAccount(id string) error {
	uid, err := uuid.FromString(id)
	if err != nil || uid == uuid.Nil {
		return fmt.Errorf("%w: %q", ErrInvalidAccount, id)
	}
	return nil
}

func addAmount(a, b decimal.Decimal) (decimal.Decimal, error) {
	sum := a.Add(b)
	if sum.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, a, b)
	}
	return sum, nil
}
