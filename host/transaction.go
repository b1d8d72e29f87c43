package host

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/shopspring/decimal"
)

// Transaction is one applied value transfer. Deposits have no sender.
type Transaction struct {
	TraceId   string
	CallId    string
	Sender    string
	Receiver  string
	Amount    decimal.Decimal
	Memo      string
	CreatedAt time.Time
}

// Ledger is the value transfer collaborator of the engine, backed by the
// account balances of the store.
type Ledger struct {
	store Store
	clock *Clock
}

func NewLedger(store Store, clock *Clock) *Ledger {
	return &Ledger{store: store, clock: clock}
}

// the trace id of every transfer is derived from the call trace id, so a
// replayed call never moves value twice
func transferTraceId(callId string, index int, memo string) string {
	return mixin.UniqueConversationID(callId, fmt.Sprintf("%d:%s", index, memo))
}

func (l *Ledger) Transfer(ctx context.Context, traceId string, transfers ...*collectible.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	now := l.clock.Now()
	txs := make([]*Transaction, len(transfers))
	for i, t := range transfers {
		tx, err := buildTransaction(traceId, i, t.Sender, t.Receiver, t.Amount, t.Memo, now)
		if err != nil {
			return err
		}
		if tx.Sender == "" {
			return fmt.Errorf("host: transfer without sender %s", t.Memo)
		}
		txs[i] = tx
	}
	return l.store.WriteTransactions(txs)
}

// Deposit credits external value to account.
func (l *Ledger) Deposit(ctx context.Context, traceId, account string, amount decimal.Decimal) (*Transaction, error) {
	tx, err := buildTransaction(traceId, 0, "", account, amount, "deposit", l.clock.Now())
	if err != nil {
		return nil, err
	}
	err = l.store.WriteTransactions([]*Transaction{tx})
	if err != nil {
		return nil, err
	}
	return l.store.ReadTransaction(tx.TraceId)
}

func (l *Ledger) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	return l.store.ReadBalance(account)
}

func (l *Ledger) Transactions(ctx context.Context, account string, limit int) ([]*Transaction, error) {
	return l.store.ListTransactions(account, limit)
}

func buildTransaction(callId string, index int, sender, receiver string, amount decimal.Decimal, memo string, now time.Time) (*Transaction, error) {
	if callId == "" {
		return nil, fmt.Errorf("host: empty trace id for %s", memo)
	}
	min := decimal.New(1, -collectible.AmountPrecision)
	if err := collectible.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(min) {
		return nil, fmt.Errorf("%w: transfer %s", collectible.ErrInvalidAmount, amount)
	}
	if sender != "" {
		if err := collectible.ValidateAccount(sender); err != nil {
			return nil, err
		}
	}
	if err := collectible.ValidateAccount(receiver); err != nil {
		return nil, err
	}
	if sender == receiver {
		return nil, fmt.Errorf("host: transfer to self %s", sender)
	}
	return &Transaction{
		TraceId:   transferTraceId(callId, index, memo),
		CallId:    callId,
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Memo:      memo,
		CreatedAt: now,
	}, nil
}
