package collectible

import (
	"context"
	"fmt"
)

// Donate transfers the attached payment from the caller to creator. Nothing
// is persisted beyond the transfer itself.
func (eng *Engine) Donate(ctx context.Context, call *Call, creator string) error {
	if err := eng.checkCall(call); err != nil {
		return err
	}
	if err := eng.requireUnpaused(); err != nil {
		return err
	}
	if call.Value.Sign() <= 0 {
		return fmt.Errorf("%w: donation %s", ErrInvalidAmount, call.Value)
	}
	if err := ValidateAccount(creator); err != nil {
		return err
	}
	if creator == call.Sender {
		return ErrSelfDonation
	}
	if creator == eng.contract {
		return fmt.Errorf("%w: donation to contract", ErrUnauthorized)
	}
	if eng.requireCreatorRecipient {
		if err := eng.requireRole(RoleCreator, creator); err != nil {
			return err
		}
	}
	return eng.settle(ctx, call, []*Transfer{{
		Sender:   call.Sender,
		Receiver: creator,
		Amount:   call.Value,
		Memo:     "donation",
	}}, nil)
}
