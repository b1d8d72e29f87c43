package collectible

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

// Available is the contract balance an admin may withdraw.
func (eng *Engine) Available(ctx context.Context) (decimal.Decimal, error) {
	balance, err := eng.ledger.Balance(ctx, eng.contract)
	if err != nil {
		return decimal.Zero, err
	}
	escrowed, err := eng.Escrowed()
	if err != nil {
		return decimal.Zero, err
	}
	available := balance.Sub(escrowed)
	if available.Sign() < 0 {
		return decimal.Zero, nil
	}
	return available, nil
}

func (eng *Engine) Withdraw(ctx context.Context, call *Call, amount decimal.Decimal) error {
	if err := eng.checkCall(call); err != nil {
		return err
	}
	if err := eng.requireUnpaused(); err != nil {
		return err
	}
	if err := eng.requireRole(RoleAdmin, call.Sender); err != nil {
		return err
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: withdraw %s", ErrInvalidAmount, amount)
	}
	available, err := eng.Available(ctx)
	if err != nil {
		return err
	}
	if amount.GreaterThan(available) {
		return fmt.Errorf("%w: %s > %s", ErrInsufficientBalance, amount, available)
	}

	transfers := eng.collect(call, "withdraw:value")
	transfers = append(transfers, &Transfer{
		Sender:   eng.contract,
		Receiver: call.Sender,
		Amount:   amount,
		Memo:     "withdraw",
	})
	err = eng.settle(ctx, call, transfers, nil)
	if err != nil {
		return err
	}
	logger.Printf("Engine.Withdraw(%s) by %s\n", amount, call.Sender)
	return nil
}
