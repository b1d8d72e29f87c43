package store

import (
	"fmt"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/collectible/host"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
)

const (
	prefixBalance            = "LEDGER:BALANCE:"
	prefixTransactionPayload = "LEDGER:TRANSACTION:PAYLOAD:"
	prefixTransactionAccount = "LEDGER:TRANSACTION:ACCOUNT:"
)

// WriteTransactions applies all transfers in one badger transaction, either
// every balance moves or none. Transactions already recorded are skipped.
func (bs *BadgerStore) WriteTransactions(txs []*host.Transaction) error {
	return bs.update(func(txn *badger.Txn) error {
		for _, tx := range txs {
			err := bs.writeTransaction(txn, tx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (bs *BadgerStore) ReadTransaction(traceId string) (*host.Transaction, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return bs.readTransaction(txn, traceId)
}

// ListTransactions lists the transactions sent or received by account,
// oldest first.
func (bs *BadgerStore) ListTransactions(account string, limit int) ([]*host.Transaction, error) {
	txn, discard := bs.readTxn()
	defer discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixTransactionAccount + account)
	it := txn.NewIterator(opts)
	defer it.Close()

	var txs []*host.Transaction
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		tx, err := bs.readTransaction(txn, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		if len(txs) == limit {
			break
		}
	}
	return txs, nil
}

func (bs *BadgerStore) ReadBalance(account string) (decimal.Decimal, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return bs.readBalance(txn, account)
}

func (bs *BadgerStore) writeTransaction(txn *badger.Txn, tx *host.Transaction) error {
	old, err := bs.readTransaction(txn, tx.TraceId)
	if err != nil || old != nil {
		return err
	}

	if tx.Sender != "" {
		balance, err := bs.readBalance(txn, tx.Sender)
		if err != nil {
			return err
		}
		if balance.LessThan(tx.Amount) {
			return fmt.Errorf("%w: %s has %s, needs %s", collectible.ErrInsufficientFunds, tx.Sender, balance, tx.Amount)
		}
		err = bs.writeBalance(txn, tx.Sender, balance.Sub(tx.Amount))
		if err != nil {
			return err
		}
	}
	balance, err := bs.readBalance(txn, tx.Receiver)
	if err != nil {
		return err
	}
	balance = balance.Add(tx.Amount)
	if balance.GreaterThan(collectible.MaxAmount) {
		return fmt.Errorf("%w: balance of %s", collectible.ErrArithmeticOverflow, tx.Receiver)
	}
	err = bs.writeBalance(txn, tx.Receiver, balance)
	if err != nil {
		return err
	}

	key := []byte(prefixTransactionPayload + tx.TraceId)
	err = txn.Set(key, common.MsgpackMarshalPanic(tx))
	if err != nil {
		return err
	}
	for _, account := range []string{tx.Sender, tx.Receiver} {
		if account == "" {
			continue
		}
		err = txn.Set(buildTransactionTimedKey(tx, account), []byte{1})
		if err != nil {
			return err
		}
	}
	return nil
}

func (bs *BadgerStore) readTransaction(txn *badger.Txn, traceId string) (*host.Transaction, error) {
	key := []byte(prefixTransactionPayload + traceId)
	val, err := readValue(txn, key)
	if err != nil || val == nil {
		return nil, err
	}
	var tx host.Transaction
	err = common.MsgpackUnmarshal(val, &tx)
	return &tx, err
}

func (bs *BadgerStore) readBalance(txn *badger.Txn, account string) (decimal.Decimal, error) {
	val, err := readValue(txn, []byte(prefixBalance+account))
	if err != nil || val == nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(val))
}

func (bs *BadgerStore) writeBalance(txn *badger.Txn, account string, balance decimal.Decimal) error {
	return txn.Set([]byte(prefixBalance+account), []byte(balance.String()))
}

func buildTransactionTimedKey(tx *host.Transaction, account string) []byte {
	key := append([]byte(prefixTransactionAccount+account), tsToBytes(tx.CreatedAt)...)
	return append(key, []byte(tx.TraceId)...)
}
