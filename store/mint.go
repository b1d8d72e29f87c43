package store

import (
	"fmt"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

const (
	propertyLastTokenId = "COLLECTIBLE:TOKEN:LAST"

	prefixMintCycle    = "COLLECTIBLE:MINT:CYCLE:"
	prefixTokenPayload = "COLLECTIBLE:TOKEN:PAYLOAD:"
)

// WriteMint records a new token together with the cycle state of its
// creator. The token id must follow the last allocated one.
func (bs *BadgerStore) WriteMint(token *collectible.Token, cycle *collectible.MintCycle) error {
	return bs.update(func(txn *badger.Txn) error {
		last, err := readValue(txn, []byte(propertyLastTokenId))
		if err != nil {
			return err
		}
		if n := bytesToUint64(last); token.Id != n+1 {
			return fmt.Errorf("store: token id %d after %d", token.Id, n)
		}
		old, err := bs.readToken(txn, token.Id)
		if err != nil {
			return err
		} else if old != nil {
			panic(token.Id)
		}
		if cycle.Creator != token.Creator {
			panic(cycle.Creator)
		}

		key := append([]byte(prefixTokenPayload), uint64ToBytes(token.Id)...)
		err = txn.Set(key, common.MsgpackMarshalPanic(token))
		if err != nil {
			return err
		}
		key = []byte(prefixMintCycle + cycle.Creator)
		err = txn.Set(key, common.MsgpackMarshalPanic(cycle))
		if err != nil {
			return err
		}
		return txn.Set([]byte(propertyLastTokenId), uint64ToBytes(token.Id))
	})
}

func (bs *BadgerStore) ReadLastTokenId() (uint64, error) {
	val, err := bs.ReadProperty([]byte(propertyLastTokenId))
	return bytesToUint64(val), err
}

func (bs *BadgerStore) ReadToken(id uint64) (*collectible.Token, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return bs.readToken(txn, id)
}

func (bs *BadgerStore) ReadMintCycle(creator string) (*collectible.MintCycle, error) {
	val, err := bs.ReadProperty([]byte(prefixMintCycle + creator))
	if err != nil || val == nil {
		return nil, err
	}
	var mc collectible.MintCycle
	err = common.MsgpackUnmarshal(val, &mc)
	return &mc, err
}

func (bs *BadgerStore) readToken(txn *badger.Txn, id uint64) (*collectible.Token, error) {
	key := append([]byte(prefixTokenPayload), uint64ToBytes(id)...)
	val, err := readValue(txn, key)
	if err != nil || val == nil {
		return nil, err
	}
	var token collectible.Token
	err = common.MsgpackUnmarshal(val, &token)
	return &token, err
}
