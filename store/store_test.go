package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/collectible/host"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *BadgerStore {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bs, err := OpenBadger(ctx, "")
	require.Nil(t, err)
	t.Cleanup(func() { bs.Close() })
	return bs
}

func newAccount() string {
	return uuid.Must(uuid.NewV4()).String()
}

func TestGenesisAndRoles(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	admin := newAccount()

	terms, err := bs.ReadTerms()
	require.Nil(err)
	require.Nil(terms)

	err = bs.WriteGenesis(&collectible.Terms{
		MintBaseFee:         decimal.RequireFromString("0.05"),
		CreatorSignatureFee: decimal.NewFromInt(1),
		MaxMintsPerCycle:    10,
		RateIncrementPct:    decimal.NewFromInt(10),
		DecayPeriod:         time.Hour,
	}, admin)
	require.Nil(err)
	terms, err = bs.ReadTerms()
	require.Nil(err)
	require.Equal("0.05", terms.MintBaseFee.String())
	require.Equal(time.Hour, terms.DecayPeriod)
	require.Panics(func() { bs.WriteGenesis(terms, admin) })

	role, err := bs.ReadRole(admin)
	require.Nil(err)
	require.Equal(collectible.RoleAdmin, role)
	err = bs.WriteRole(admin, collectible.RoleAdmin|collectible.RoleCreator)
	require.Nil(err)
	role, _ = bs.ReadRole(admin)
	require.True(role.Has(collectible.RoleCreator))
	err = bs.WriteRole(admin, 0)
	require.Nil(err)
	role, _ = bs.ReadRole(admin)
	require.Equal(collectible.Role(0), role)

	paused, _ := bs.ReadPaused()
	require.False(paused)
	require.Nil(bs.WritePaused(true))
	paused, _ = bs.ReadPaused()
	require.True(paused)
}

func TestWriteMint(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	creator := newAccount()
	now := time.Now()

	last, err := bs.ReadLastTokenId()
	require.Nil(err)
	require.Equal(uint64(0), last)
	cycle, err := bs.ReadMintCycle(creator)
	require.Nil(err)
	require.Nil(cycle)

	token := &collectible.Token{Id: 1, Creator: creator, Owner: creator, URI: "ipfs://one", CreatedAt: now}
	err = bs.WriteMint(token, &collectible.MintCycle{Creator: creator, MintsInCycle: 1, CycleStart: now})
	require.Nil(err)

	token = &collectible.Token{Id: 3, Creator: creator, Owner: creator, CreatedAt: now}
	err = bs.WriteMint(token, &collectible.MintCycle{Creator: creator, MintsInCycle: 2, CycleStart: now})
	require.NotNil(err)

	last, _ = bs.ReadLastTokenId()
	require.Equal(uint64(1), last)
	cycle, err = bs.ReadMintCycle(creator)
	require.Nil(err)
	require.Equal(uint32(1), cycle.MintsInCycle)
	require.True(cycle.CycleStart.Equal(now))
	stored, err := bs.ReadToken(1)
	require.Nil(err)
	require.Equal("ipfs://one", stored.URI)
	stored, err = bs.ReadToken(2)
	require.Nil(err)
	require.Nil(stored)
}

func TestRaffleStates(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	creator, bob := newAccount(), newAccount()
	now := time.Now()

	for id := uint64(1); id <= 3; id++ {
		err := bs.WriteRaffle(&collectible.Raffle{
			TokenId:        id,
			Creator:        creator,
			ExpectedAmount: decimal.NewFromInt(1),
			RaffleAmount:   decimal.Zero,
			State:          collectible.RaffleStateOpen,
			CreatedAt:      now.Add(time.Duration(id) * time.Second),
			UpdatedAt:      now,
		})
		require.Nil(err)
	}
	r, err := bs.ReadRaffle(2)
	require.Nil(err)
	require.NotNil(r.Contributions)
	r.Contributions[bob] = decimal.RequireFromString("1.5")
	r.RaffleAmount = decimal.RequireFromString("1.5")
	require.Nil(bs.WriteRaffle(r))

	open, err := bs.ListRaffles(collectible.RaffleStateOpen, 0)
	require.Nil(err)
	require.Len(open, 3)
	require.Equal(uint64(1), open[0].TokenId)
	require.Equal("1.5", open[1].Contribution(bob).String())

	r.State = collectible.RaffleStateSettled
	require.Nil(bs.WriteRaffle(r))
	open, _ = bs.ListRaffles(collectible.RaffleStateOpen, 0)
	require.Len(open, 2)
	open, _ = bs.ListRaffles(collectible.RaffleStateOpen, 1)
	require.Len(open, 1)
	settled, _ := bs.ListRaffles(collectible.RaffleStateSettled, 0)
	require.Len(settled, 1)
	require.Equal(uint64(2), settled[0].TokenId)

	r.State = collectible.RaffleStateOpen
	require.Panics(func() { bs.WriteRaffle(r) })
}

func TestActionStates(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	now := time.Now()

	act := &host.Action{
		TraceId:   newAccount(),
		Method:    "mint",
		Sender:    newAccount(),
		Value:     decimal.RequireFromString("0.05"),
		State:     host.ActionStateInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.Nil(bs.WriteAction(act))
	acts, _ := bs.ListActions(host.ActionStateInitial, 0)
	require.Len(acts, 1)

	act.State = host.ActionStateFailed
	act.Reason = "paused"
	require.Nil(bs.WriteAction(act))
	acts, _ = bs.ListActions(host.ActionStateInitial, 0)
	require.Len(acts, 0)
	acts, _ = bs.ListActions(host.ActionStateFailed, 0)
	require.Len(acts, 1)
	require.Equal("paused", acts[0].Reason)

	act.State = host.ActionStateInitial
	act.Reason = ""
	require.Nil(bs.WriteAction(act))
	old, err := bs.ReadAction(act.TraceId)
	require.Nil(err)
	require.Equal(host.ActionStateFailed, old.State)
	require.Equal("0.05", old.Value.String())
}

func TestTransactions(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	alice, bob := newAccount(), newAccount()
	now := time.Now()

	deposit := &host.Transaction{
		TraceId: newAccount(), CallId: newAccount(), Receiver: alice,
		Amount: decimal.NewFromInt(2), Memo: "deposit", CreatedAt: now,
	}
	require.Nil(bs.WriteTransactions([]*host.Transaction{deposit}))
	require.Nil(bs.WriteTransactions([]*host.Transaction{deposit}))
	balance, _ := bs.ReadBalance(alice)
	require.Equal("2", balance.String())

	overdraw := &host.Transaction{
		TraceId: newAccount(), CallId: newAccount(), Sender: alice, Receiver: bob,
		Amount: decimal.NewFromInt(3), Memo: "over", CreatedAt: now.Add(time.Second),
	}
	err := bs.WriteTransactions([]*host.Transaction{overdraw})
	require.ErrorIs(err, collectible.ErrInsufficientFunds)

	overflow := &host.Transaction{
		TraceId: newAccount(), CallId: newAccount(), Receiver: bob,
		Amount: collectible.MaxAmount, Memo: "deposit", CreatedAt: now,
	}
	require.Nil(bs.WriteTransactions([]*host.Transaction{overflow}))
	overflow = &host.Transaction{
		TraceId: newAccount(), CallId: newAccount(), Sender: alice, Receiver: bob,
		Amount: decimal.NewFromInt(1), Memo: "more", CreatedAt: now,
	}
	err = bs.WriteTransactions([]*host.Transaction{overflow})
	require.ErrorIs(err, collectible.ErrArithmeticOverflow)
	balance, _ = bs.ReadBalance(alice)
	require.Equal("2", balance.String())

	txs, err := bs.ListTransactions(alice, 0)
	require.Nil(err)
	require.Len(txs, 1)
	require.Equal(deposit.TraceId, txs[0].TraceId)
}

func TestAtomic(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)
	creator := newAccount()
	now := time.Now()

	err := bs.Atomic(func(tx host.Storage) error {
		err := tx.WriteRole(creator, collectible.RoleCreator)
		if err != nil {
			return err
		}
		role, err := tx.ReadRole(creator)
		if err != nil {
			return err
		}
		require.Equal(collectible.RoleCreator, role)
		outside, err := bs.ReadRole(creator)
		require.Nil(err)
		require.Equal(collectible.Role(0), outside)
		return errors.New("abort")
	})
	require.EqualError(err, "abort")
	role, _ := bs.ReadRole(creator)
	require.Equal(collectible.Role(0), role)

	err = bs.Atomic(func(tx host.Storage) error {
		err := tx.WriteTransactions([]*host.Transaction{{
			TraceId: newAccount(), CallId: newAccount(), Receiver: creator,
			Amount: decimal.NewFromInt(1), Memo: "deposit", CreatedAt: now,
		}})
		if err != nil {
			return err
		}
		return tx.Atomic(func(inner host.Storage) error {
			return inner.WriteMint(&collectible.Token{Id: 1, Creator: creator, Owner: creator, CreatedAt: now},
				&collectible.MintCycle{Creator: creator, MintsInCycle: 1, CycleStart: now})
		})
	})
	require.Nil(err)
	balance, _ := bs.ReadBalance(creator)
	require.Equal("1", balance.String())
	last, _ := bs.ReadLastTokenId()
	require.Equal(uint64(1), last)
}
