package collectible

import (
	"context"

	"github.com/shopspring/decimal"
)

type Store interface {
	WriteGenesis(terms *Terms, admin string) error
	ReadTerms() (*Terms, error)
	WriteTerms(terms *Terms) error

	ReadPaused() (bool, error)
	WritePaused(paused bool) error

	ReadRole(account string) (Role, error)
	WriteRole(account string, roles Role) error

	ReadMintCycle(creator string) (*MintCycle, error)
	ReadLastTokenId() (uint64, error)
	ReadToken(id uint64) (*Token, error)
	WriteMint(token *Token, cycle *MintCycle) error

	ReadRaffle(tokenId uint64) (*Raffle, error)
	WriteRaffle(r *Raffle) error
	ListRaffles(state int, limit int) ([]*Raffle, error)
}

type Transfer struct {
	Sender   string
	Receiver string
	Amount   decimal.Decimal
	Memo     string
}

// Transferer moves value between accounts. A batch is applied atomically,
// and each transfer is applied at most once per trace id, index and memo.
type Transferer interface {
	Transfer(ctx context.Context, traceId string, transfers ...*Transfer) error
	Balance(ctx context.Context, account string) (decimal.Decimal, error)
}
