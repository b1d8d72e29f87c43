package store

import (
	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
)

const (
	prefixRafflePayload = "COLLECTIBLE:RAFFLE:PAYLOAD:"
	prefixRaffleState   = "COLLECTIBLE:RAFFLE:STATE:"
)

func (bs *BadgerStore) WriteRaffle(r *collectible.Raffle) error {
	return bs.update(func(txn *badger.Txn) error {
		err := bs.resetOldRaffle(txn, r)
		if err != nil {
			return err
		}
		key := append([]byte(prefixRafflePayload), uint64ToBytes(r.TokenId)...)
		err = txn.Set(key, common.MsgpackMarshalPanic(r))
		if err != nil {
			return err
		}
		key = buildRaffleTimedKey(r)
		return txn.Set(key, []byte{1})
	})
}

func (bs *BadgerStore) ReadRaffle(tokenId uint64) (*collectible.Raffle, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return bs.readRaffle(txn, tokenId)
}

func (bs *BadgerStore) ListRaffles(state int, limit int) ([]*collectible.Raffle, error) {
	txn, discard := bs.readTxn()
	defer discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(raffleStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var raffles []*collectible.Raffle
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := bytesToUint64(key[len(opts.Prefix)+8:])
		r, err := bs.readRaffle(txn, id)
		if err != nil {
			return nil, err
		}
		raffles = append(raffles, r)
		if len(raffles) == limit {
			break
		}
	}
	return raffles, nil
}

// resetOldRaffle drops the state index of the stored raffle, states only
// move forward.
func (bs *BadgerStore) resetOldRaffle(txn *badger.Txn, r *collectible.Raffle) error {
	old, err := bs.readRaffle(txn, r.TokenId)
	if err != nil || old == nil {
		return err
	}
	if old.State > r.State {
		panic(old.State)
	}
	if old.State == r.State {
		return nil
	}
	return txn.Delete(buildRaffleTimedKey(old))
}

func (bs *BadgerStore) readRaffle(txn *badger.Txn, tokenId uint64) (*collectible.Raffle, error) {
	key := append([]byte(prefixRafflePayload), uint64ToBytes(tokenId)...)
	val, err := readValue(txn, key)
	if err != nil || val == nil {
		return nil, err
	}
	var r collectible.Raffle
	err = common.MsgpackUnmarshal(val, &r)
	if r.Contributions == nil {
		r.Contributions = make(map[string]decimal.Decimal)
	}
	return &r, err
}

func buildRaffleTimedKey(r *collectible.Raffle) []byte {
	key := append([]byte(raffleStatePrefix(r.State)), tsToBytes(r.CreatedAt)...)
	return append(key, uint64ToBytes(r.TokenId)...)
}

func raffleStatePrefix(state int) string {
	prefix := prefixRaffleState
	switch state {
	case collectible.RaffleStateOpen:
		return prefix + "openedd"
	case collectible.RaffleStateSettled:
		return prefix + "settled"
	case collectible.RaffleStateRefunded:
		return prefix + "refundd"
	}
	panic(state)
}
