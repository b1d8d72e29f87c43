package store

import (
	"github.com/MixinNetwork/collectible/host"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixActionPayload = "HOST:ACTION:PAYLOAD:"
	prefixActionState   = "HOST:ACTION:STATE:"
)

func (bs *BadgerStore) WriteAction(act *host.Action) error {
	return bs.update(func(txn *badger.Txn) error {
		old, err := bs.resetOldAction(txn, act)
		if err != nil || old != nil {
			return err
		}
		key := []byte(prefixActionPayload + act.TraceId)
		val := common.MsgpackMarshalPanic(act)
		err = txn.Set(key, val)
		if err != nil {
			return err
		}

		key = buildActionTimedKey(act)
		return txn.Set(key, []byte{1})
	})
}

func (bs *BadgerStore) ReadAction(traceId string) (*host.Action, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return bs.readAction(txn, traceId)
}

func (bs *BadgerStore) ListActions(state int, limit int) ([]*host.Action, error) {
	txn, discard := bs.readTxn()
	defer discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(actionStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var acts []*host.Action
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		act, err := bs.readAction(txn, id)
		if err != nil {
			return nil, err
		}
		acts = append(acts, act)
		if len(acts) == limit {
			break
		}
	}
	return acts, nil
}

// resetOldAction returns the stored action when it is already in a final
// or equal state, otherwise it drops its state index.
func (bs *BadgerStore) resetOldAction(txn *badger.Txn, act *host.Action) (*host.Action, error) {
	old, err := bs.readAction(txn, act.TraceId)
	if err != nil || old == nil {
		return old, err
	}
	if old.State >= act.State {
		return old, nil
	}

	key := buildActionTimedKey(old)
	_, err = txn.Get(key)
	if err != nil {
		panic(key)
	}
	return nil, txn.Delete(key)
}

func (bs *BadgerStore) readAction(txn *badger.Txn, id string) (*host.Action, error) {
	key := []byte(prefixActionPayload + id)
	val, err := readValue(txn, key)
	if err != nil || val == nil {
		return nil, err
	}
	var act host.Action
	err = common.MsgpackUnmarshal(val, &act)
	return &act, err
}

func buildActionTimedKey(act *host.Action) []byte {
	prefix := actionStatePrefix(act.State)
	key := append([]byte(prefix), tsToBytes(act.CreatedAt)...)
	return append(key, []byte(act.TraceId)...)
}

func actionStatePrefix(state int) string {
	prefix := prefixActionState
	switch state {
	case host.ActionStateInitial:
		return prefix + "initial"
	case host.ActionStateDone:
		return prefix + "doneeee"
	case host.ActionStateFailed:
		return prefix + "failedd"
	}
	panic(state)
}
