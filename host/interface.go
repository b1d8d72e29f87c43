package host

import (
	"github.com/shopspring/decimal"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	WriteAction(act *Action) error
	ReadAction(traceId string) (*Action, error)
	ListActions(state int, limit int) ([]*Action, error)

	WriteTransactions(txs []*Transaction) error
	ReadTransaction(traceId string) (*Transaction, error)
	ListTransactions(account string, limit int) ([]*Transaction, error)
	ReadBalance(account string) (decimal.Decimal, error)
}
