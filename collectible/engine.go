package collectible

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

// Call carries the caller identity, the attached payment and the host time
// of one engine operation.
type Call struct {
	TraceId string
	Sender  string
	Value   decimal.Decimal
	Now     time.Time
}

type Genesis struct {
	Admin    string
	Contract string
	Terms    Terms

	// RequireCreatorRecipient restricts donations to accounts holding the
	// creator role.
	RequireCreatorRecipient bool
}

// Engine is a single writer state machine. Operations must not run
// concurrently, the host serializes them.
type Engine struct {
	store    Store
	ledger   Transferer
	contract string

	requireCreatorRecipient bool
}

func NewEngine(ctx context.Context, store Store, ledger Transferer, gen *Genesis) (*Engine, error) {
	if err := ValidateAccount(gen.Admin); err != nil {
		return nil, err
	}
	if err := ValidateAccount(gen.Contract); err != nil {
		return nil, err
	}
	if gen.Admin == gen.Contract {
		return nil, fmt.Errorf("collectible: admin %s is the contract account", gen.Admin)
	}
	old, err := store.ReadTerms()
	if err != nil {
		return nil, err
	}
	if old == nil {
		terms := gen.Terms
		if err := terms.Validate(); err != nil {
			return nil, err
		}
		err = store.WriteGenesis(&terms, gen.Admin)
		if err != nil {
			return nil, err
		}
		logger.Printf("NewEngine() => genesis admin %s terms %v\n", gen.Admin, terms)
	}
	return &Engine{
		store:                   store,
		ledger:                  ledger,
		contract:                gen.Contract,
		requireCreatorRecipient: gen.RequireCreatorRecipient,
	}, nil
}

// Bind returns an engine with the same configuration over another store and
// ledger, as used for one call executed inside a store transaction.
func (eng *Engine) Bind(store Store, ledger Transferer) *Engine {
	bound := *eng
	bound.store = store
	bound.ledger = ledger
	return &bound
}

func (eng *Engine) Contract() string {
	return eng.contract
}

func (eng *Engine) checkCall(call *Call) error {
	if err := ValidateAccount(call.Sender); err != nil {
		return err
	}
	if call.Sender == eng.contract {
		return fmt.Errorf("%w: contract account as caller", ErrUnauthorized)
	}
	return ValidateAmount(call.Value)
}

// collect moves the attached payment of call into the contract account.
func (eng *Engine) collect(call *Call, memo string) []*Transfer {
	return []*Transfer{{
		Sender:   call.Sender,
		Receiver: eng.contract,
		Amount:   call.Value,
		Memo:     memo,
	}}
}

// settle applies the transfers and then the state write. A failed write
// reverts the transfers, so a call either commits both or neither. A revert
// that fails too leaves value moved without state and panics.
func (eng *Engine) settle(ctx context.Context, call *Call, transfers []*Transfer, write func() error) error {
	var moves []*Transfer
	for _, t := range transfers {
		if t.Amount.Sign() > 0 {
			moves = append(moves, t)
		}
	}
	if len(moves) > 0 {
		err := eng.ledger.Transfer(ctx, call.TraceId, moves...)
		if err != nil {
			return err
		}
	}
	if write == nil {
		return nil
	}
	err := write()
	if err == nil || len(moves) == 0 {
		return err
	}

	reverse := make([]*Transfer, len(moves))
	for i, t := range moves {
		reverse[len(moves)-1-i] = &Transfer{
			Sender:   t.Receiver,
			Receiver: t.Sender,
			Amount:   t.Amount,
			Memo:     "revert:" + t.Memo,
		}
	}
	rerr := eng.ledger.Transfer(ctx, call.TraceId, reverse...)
	if rerr != nil {
		logger.Printf("Engine.settle(%s) revert => %v %v\n", call.TraceId, err, rerr)
		panic(rerr)
	}
	return err
}
