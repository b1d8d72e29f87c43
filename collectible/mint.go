package collectible

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

type Token struct {
	Id        uint64
	Creator   string
	Owner     string
	URI       string
	CreatedAt time.Time
}

// CurrentTokenId returns the last allocated token id, 0 before any mint.
func (eng *Engine) CurrentTokenId() (uint64, error) {
	return eng.store.ReadLastTokenId()
}

func (eng *Engine) Token(id uint64) (*Token, error) {
	token, err := eng.store.ReadToken(id)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: token %d", ErrNotFound, id)
	}
	return token, nil
}

// SafeMint mints the next token for the calling creator, owned by recipient
// or by the caller when recipient is empty. Payment above the quoted fee is
// retained by the contract.
func (eng *Engine) SafeMint(ctx context.Context, call *Call, uri, recipient string) (*Token, error) {
	if err := eng.checkCall(call); err != nil {
		return nil, err
	}
	if err := eng.requireUnpaused(); err != nil {
		return nil, err
	}
	if err := eng.requireRole(RoleCreator, call.Sender); err != nil {
		return nil, err
	}
	if recipient == "" {
		recipient = call.Sender
	}
	if err := ValidateAccount(recipient); err != nil {
		return nil, err
	}

	terms, err := eng.Terms()
	if err != nil {
		return nil, err
	}
	cycle, err := eng.store.ReadMintCycle(call.Sender)
	if err != nil {
		return nil, err
	}
	fee, err := QuoteFee(terms, cycle, call.Now)
	if err != nil {
		return nil, err
	}
	if call.Value.LessThan(fee) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInsufficientPayment, call.Value, fee)
	}

	last, err := eng.store.ReadLastTokenId()
	if err != nil {
		return nil, err
	}
	if last == math.MaxUint64 {
		return nil, fmt.Errorf("%w: token id", ErrArithmeticOverflow)
	}
	token := &Token{
		Id:        last + 1,
		Creator:   call.Sender,
		Owner:     recipient,
		URI:       uri,
		CreatedAt: call.Now,
	}
	cycle = cycle.next(call.Sender, terms, call.Now)

	payment := eng.collect(call, fmt.Sprintf("mint:%d", token.Id))
	err = eng.settle(ctx, call, payment, func() error {
		return eng.store.WriteMint(token, cycle)
	})
	if err != nil {
		return nil, err
	}
	logger.Verbosef("Engine.SafeMint(%s, %d) => fee %s paid %s cycle %d\n", call.Sender, token.Id, fee, call.Value, cycle.MintsInCycle)
	return token, nil
}
