package store

import (
	"context"
	"time"

	"github.com/MixinNetwork/collectible/host"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/dgraph-io/badger/v3"
)

type BadgerStore struct {
	db *badger.DB

	// txn is set on the store handed to Atomic callbacks
	txn *badger.Txn
}

// OpenBadger opens the store at path, or an in-memory store when path is
// empty.
func OpenBadger(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		go runValueLogGC(ctx, db)
	}

	return &BadgerStore{
		db: db,
	}, nil
}

func runValueLogGC(ctx context.Context, db *badger.DB) {
	for {
		lsm, vlog := db.Size()
		logger.Printf("Badger LSM %d VLOG %d\n", lsm, vlog)
		if lsm > 1024*1024*8 || vlog > 1024*1024*32 {
			err := db.RunValueLogGC(0.5)
			logger.Printf("Badger RunValueLogGC %v\n", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Minute):
		}
	}
}

// Atomic runs fn against a store bound to one badger transaction, committed
// only when fn returns nil. Nested calls join the outer transaction.
func (bs *BadgerStore) Atomic(fn func(tx host.Storage) error) error {
	if bs.txn != nil {
		return fn(bs)
	}
	return bs.db.Update(func(txn *badger.Txn) error {
		return fn(&BadgerStore{db: bs.db, txn: txn})
	})
}

func (bs *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	if bs.txn != nil {
		return fn(bs.txn)
	}
	return bs.db.Update(fn)
}

// readTxn returns the bound transaction, or a fresh read only one with its
// discard func.
func (bs *BadgerStore) readTxn() (*badger.Txn, func()) {
	if bs.txn != nil {
		return bs.txn, func() {}
	}
	txn := bs.db.NewTransaction(false)
	return txn, txn.Discard
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) Badger() *badger.DB {
	return bs.db
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn, discard := bs.readTxn()
	defer discard()

	return readValue(txn, key)
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
