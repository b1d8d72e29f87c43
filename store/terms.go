package store

import (
	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

const (
	propertyTerms  = "COLLECTIBLE:TERMS"
	propertyPaused = "COLLECTIBLE:PAUSED"
	prefixRole     = "COLLECTIBLE:ROLE:"
)

func (bs *BadgerStore) WriteGenesis(terms *collectible.Terms, admin string) error {
	return bs.update(func(txn *badger.Txn) error {
		old, err := readValue(txn, []byte(propertyTerms))
		if err != nil {
			return err
		} else if old != nil {
			panic(admin)
		}
		err = txn.Set([]byte(propertyTerms), common.MsgpackMarshalPanic(terms))
		if err != nil {
			return err
		}
		return txn.Set([]byte(prefixRole+admin), []byte{byte(collectible.RoleAdmin)})
	})
}

func (bs *BadgerStore) ReadTerms() (*collectible.Terms, error) {
	val, err := bs.ReadProperty([]byte(propertyTerms))
	if err != nil || val == nil {
		return nil, err
	}
	var terms collectible.Terms
	err = common.MsgpackUnmarshal(val, &terms)
	return &terms, err
}

func (bs *BadgerStore) WriteTerms(terms *collectible.Terms) error {
	return bs.WriteProperty([]byte(propertyTerms), common.MsgpackMarshalPanic(terms))
}

func (bs *BadgerStore) ReadPaused() (bool, error) {
	val, err := bs.ReadProperty([]byte(propertyPaused))
	if err != nil {
		return false, err
	}
	return len(val) == 1 && val[0] == 1, nil
}

func (bs *BadgerStore) WritePaused(paused bool) error {
	val := []byte{0}
	if paused {
		val[0] = 1
	}
	return bs.WriteProperty([]byte(propertyPaused), val)
}

func (bs *BadgerStore) ReadRole(account string) (collectible.Role, error) {
	val, err := bs.ReadProperty([]byte(prefixRole + account))
	if err != nil || len(val) != 1 {
		return 0, err
	}
	return collectible.Role(val[0]), nil
}

func (bs *BadgerStore) WriteRole(account string, roles collectible.Role) error {
	return bs.update(func(txn *badger.Txn) error {
		key := []byte(prefixRole + account)
		if roles == 0 {
			return txn.Delete(key)
		}
		return txn.Set(key, []byte{byte(roles)})
	})
}
