package collectible

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

const (
	RaffleStateOpen     = 10
	RaffleStateSettled  = 11
	RaffleStateRefunded = 12
)

// Raffle is an escrow pool tied to one token. RaffleAmount is always the sum
// of Contributions, and contributions above ExpectedAmount are accepted.
type Raffle struct {
	TokenId        uint64
	Creator        string
	ExpectedAmount decimal.Decimal
	RaffleAmount   decimal.Decimal
	Contributions  map[string]decimal.Decimal
	State          int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Raffle) Funded() bool {
	return r.RaffleAmount.GreaterThanOrEqual(r.ExpectedAmount)
}

func (r *Raffle) StateName() string {
	switch r.State {
	case RaffleStateOpen:
		return "open"
	case RaffleStateSettled:
		return "settled"
	case RaffleStateRefunded:
		return "refunded"
	}
	panic(r.State)
}

func (r *Raffle) Contribution(account string) decimal.Decimal {
	return r.Contributions[account]
}

func (r *Raffle) contributors() []string {
	accounts := make([]string, 0, len(r.Contributions))
	for a := range r.Contributions {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts
}

func (eng *Engine) Raffle(tokenId uint64) (*Raffle, error) {
	r, err := eng.store.ReadRaffle(tokenId)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: raffle %d", ErrNotFound, tokenId)
	}
	return r, nil
}

// CreateRaffle opens the raffle of a token. Only the creator who minted the
// token may open it, and a raffle is never overwritten.
func (eng *Engine) CreateRaffle(ctx context.Context, call *Call, tokenId uint64, expected decimal.Decimal) (*Raffle, error) {
	if err := eng.checkCall(call); err != nil {
		return nil, err
	}
	if err := eng.requireUnpaused(); err != nil {
		return nil, err
	}
	if err := ValidateAmount(expected); err != nil {
		return nil, err
	}
	if expected.Sign() <= 0 {
		return nil, fmt.Errorf("%w: expected amount %s", ErrInvalidAmount, expected)
	}
	token, err := eng.Token(tokenId)
	if err != nil {
		return nil, err
	}
	if token.Creator != call.Sender {
		return nil, fmt.Errorf("%w: token %d not created by %s", ErrUnauthorized, tokenId, call.Sender)
	}
	old, err := eng.store.ReadRaffle(tokenId)
	if err != nil {
		return nil, err
	}
	if old != nil {
		return nil, fmt.Errorf("%w: raffle %d", ErrAlreadyExists, tokenId)
	}

	r := &Raffle{
		TokenId:        tokenId,
		Creator:        call.Sender,
		ExpectedAmount: expected,
		RaffleAmount:   decimal.Zero,
		Contributions:  make(map[string]decimal.Decimal),
		State:          RaffleStateOpen,
		CreatedAt:      call.Now,
		UpdatedAt:      call.Now,
	}
	payment := eng.collect(call, fmt.Sprintf("raffle:%d", tokenId))
	err = eng.settle(ctx, call, payment, func() error {
		return eng.store.WriteRaffle(r)
	})
	if err != nil {
		return nil, err
	}
	logger.Verbosef("Engine.CreateRaffle(%d, %s) by %s\n", tokenId, expected, call.Sender)
	return r, nil
}

// JoinRaffle escrows the attached payment in the open raffle of tokenId.
func (eng *Engine) JoinRaffle(ctx context.Context, call *Call, tokenId uint64) (*Raffle, error) {
	if err := eng.checkCall(call); err != nil {
		return nil, err
	}
	if err := eng.requireUnpaused(); err != nil {
		return nil, err
	}
	if call.Value.Sign() <= 0 {
		return nil, fmt.Errorf("%w: contribution %s", ErrInvalidAmount, call.Value)
	}
	r, err := eng.Raffle(tokenId)
	if err != nil {
		return nil, err
	}
	if r.State != RaffleStateOpen {
		return nil, fmt.Errorf("%w: raffle %d %s", ErrClosed, tokenId, r.StateName())
	}
	total, err := addAmount(r.RaffleAmount, call.Value)
	if err != nil {
		return nil, err
	}
	mine, err := addAmount(r.Contribution(call.Sender), call.Value)
	if err != nil {
		return nil, err
	}
	r.RaffleAmount = total
	r.Contributions[call.Sender] = mine
	r.UpdatedAt = call.Now

	payment := eng.collect(call, fmt.Sprintf("raffle:%d:join", tokenId))
	err = eng.settle(ctx, call, payment, func() error {
		return eng.store.WriteRaffle(r)
	})
	if err != nil {
		return nil, err
	}
	if r.Funded() {
		logger.Verbosef("Engine.JoinRaffle(%d) funded %s/%s\n", tokenId, r.RaffleAmount, r.ExpectedAmount)
	}
	return r, nil
}

// SettleRaffle closes an open raffle. A funded pool is paid out in full to
// the token creator, otherwise every contributor is refunded. Only the
// raffle creator or an admin may settle.
func (eng *Engine) SettleRaffle(ctx context.Context, call *Call, tokenId uint64) (*Raffle, error) {
	if err := eng.checkCall(call); err != nil {
		return nil, err
	}
	if err := eng.requireUnpaused(); err != nil {
		return nil, err
	}
	r, err := eng.Raffle(tokenId)
	if err != nil {
		return nil, err
	}
	if r.Creator != call.Sender {
		if err := eng.requireRole(RoleAdmin, call.Sender); err != nil {
			return nil, err
		}
	}
	if r.State != RaffleStateOpen {
		return nil, fmt.Errorf("%w: raffle %d %s", ErrClosed, tokenId, r.StateName())
	}

	transfers := eng.collect(call, fmt.Sprintf("raffle:%d:settle", tokenId))
	if r.Funded() {
		r.State = RaffleStateSettled
		transfers = append(transfers, &Transfer{
			Sender:   eng.contract,
			Receiver: r.Creator,
			Amount:   r.RaffleAmount,
			Memo:     fmt.Sprintf("raffle:%d:payout", tokenId),
		})
	} else {
		r.State = RaffleStateRefunded
		for _, a := range r.contributors() {
			transfers = append(transfers, &Transfer{
				Sender:   eng.contract,
				Receiver: a,
				Amount:   r.Contributions[a],
				Memo:     fmt.Sprintf("raffle:%d:refund:%s", tokenId, a),
			})
		}
	}
	r.UpdatedAt = call.Now

	err = eng.settle(ctx, call, transfers, func() error {
		return eng.store.WriteRaffle(r)
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("Engine.SettleRaffle(%d) => %s %s/%s\n", tokenId, r.StateName(), r.RaffleAmount, r.ExpectedAmount)
	return r, nil
}

// Escrowed sums the pools of all open raffles, which are held by the
// contract account but not available for withdrawal.
func (eng *Engine) Escrowed() (decimal.Decimal, error) {
	raffles, err := eng.store.ListRaffles(RaffleStateOpen, 0)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range raffles {
		total = total.Add(r.RaffleAmount)
	}
	return total, nil
}
