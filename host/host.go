package host

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Storage is a Store that can run a call in a single transaction.
type Storage interface {
	Store
	collectible.Store

	Atomic(fn func(tx Storage) error) error
}

// Handler runs one mutating call against the engine.
type Handler func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error

// Query reads engine state at the host time now.
type Query func(eng *collectible.Engine, now time.Time) error

// ReasonInterrupted marks calls found unfinished at startup.
const ReasonInterrupted = "interrupted"

type request struct {
	method  string
	sender  string
	value   decimal.Decimal
	traceId string
	handler func(ctx context.Context, eng *collectible.Engine, ledger *Ledger, call *collectible.Call) error
	query   Query

	done chan *result
}

type result struct {
	act *Action
	err error
}

// Host owns the engine and executes calls one at a time, in arrival order.
// Every call commits its state changes, value transfers and final action
// state in one store transaction.
type Host struct {
	store    Storage
	clock    *Clock
	ledger   *Ledger
	engine   *collectible.Engine
	requests chan *request
}

func BuildHost(ctx context.Context, store Storage, conf *Configuration) (*Host, error) {
	gen, err := conf.Genesis()
	if err != nil {
		return nil, err
	}
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	ledger := NewLedger(store, clock)
	engine, err := collectible.NewEngine(ctx, store, ledger, gen)
	if err != nil {
		return nil, err
	}
	h := &Host{
		store:    store,
		clock:    clock,
		ledger:   ledger,
		engine:   engine,
		requests: make(chan *request),
	}
	err = h.recoverActions()
	if err != nil {
		return nil, err
	}
	return h, nil
}

// recoverActions fails the calls left initial by a previous process. Their
// transaction was never committed, so nothing else needs to be undone.
func (h *Host) recoverActions() error {
	for {
		acts, err := h.store.ListActions(ActionStateInitial, 100)
		if err != nil || len(acts) == 0 {
			return err
		}
		now := h.clock.Now()
		for _, act := range acts {
			logger.Printf("Host.recoverActions(%s, %s, %s)\n", act.Method, act.Sender, act.TraceId)
			h.writeAction(act, ActionStateFailed, ReasonInterrupted, now)
		}
	}
}

func (h *Host) Ledger() *Ledger {
	return h.ledger
}

func (h *Host) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-h.requests:
			act, err := h.handle(ctx, req)
			req.done <- &result{act: act, err: err}
		}
	}
}

// Execute queues a call and waits for its result. An empty trace id gets a
// random one, a trace id seen before fails with ErrAlreadyExists. Once queued
// the call runs to completion even if ctx is done, and the action is then
// only visible through Actions.
func (h *Host) Execute(ctx context.Context, method, sender string, value decimal.Decimal, traceId string, handler Handler) (*Action, error) {
	return h.execute(ctx, method, sender, value, traceId, func(ctx context.Context, eng *collectible.Engine, _ *Ledger, call *collectible.Call) error {
		return handler(ctx, eng, call)
	})
}

// Deposit credits external value to account as a logged call.
func (h *Host) Deposit(ctx context.Context, traceId, account string, amount decimal.Decimal) (*Action, error) {
	return h.execute(ctx, "deposit", account, decimal.Zero, traceId, func(ctx context.Context, _ *collectible.Engine, ledger *Ledger, call *collectible.Call) error {
		_, err := ledger.Deposit(ctx, call.TraceId, account, amount)
		return err
	})
}

func (h *Host) execute(ctx context.Context, method, sender string, value decimal.Decimal, traceId string, handler func(context.Context, *collectible.Engine, *Ledger, *collectible.Call) error) (*Action, error) {
	if traceId == "" {
		traceId = uuid.Must(uuid.NewV4()).String()
	} else if id, err := uuid.FromString(traceId); err != nil || id == uuid.Nil {
		return nil, fmt.Errorf("host: invalid trace id %q", traceId)
	}
	res, err := h.submit(ctx, &request{
		method:  method,
		sender:  sender,
		value:   value,
		traceId: traceId,
		handler: handler,
	})
	if err != nil {
		return nil, err
	}
	return res.act, res.err
}

func (h *Host) Query(ctx context.Context, query Query) error {
	res, err := h.submit(ctx, &request{query: query})
	if err != nil {
		return err
	}
	return res.err
}

func (h *Host) submit(ctx context.Context, req *request) (*result, error) {
	req.done = make(chan *result, 1)
	select {
	case h.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.done:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Host) handle(ctx context.Context, req *request) (*Action, error) {
	if req.query != nil {
		return nil, req.query(h.engine, h.clock.Peek())
	}

	old, err := h.store.ReadAction(req.traceId)
	if err != nil {
		return nil, err
	}
	if old != nil {
		return old, fmt.Errorf("%w: call %s", collectible.ErrAlreadyExists, req.traceId)
	}

	now := h.clock.Now()
	act := &Action{
		TraceId:   req.traceId,
		Method:    req.method,
		Sender:    req.sender,
		Value:     req.value,
		CreatedAt: now,
	}
	h.writeAction(act, ActionStateInitial, "", now)

	call := &collectible.Call{
		TraceId: req.traceId,
		Sender:  req.sender,
		Value:   req.value,
		Now:     now,
	}
	done := *act
	err = h.store.Atomic(func(tx Storage) error {
		ledger := NewLedger(tx, h.clock)
		err := req.handler(ctx, h.engine.Bind(tx, ledger), ledger, call)
		if err != nil {
			return err
		}
		done.State = ActionStateDone
		done.UpdatedAt = now
		return tx.WriteAction(&done)
	})
	if err != nil {
		logger.Verbosef("Host.handle(%s, %s, %s) => %v\n", req.method, req.sender, req.traceId, err)
		h.writeAction(act, ActionStateFailed, collectible.Reason(err), now)
		return act, err
	}
	return &done, nil
}

// Actions lists the logged calls in a state, oldest first.
func (h *Host) Actions(state int, limit int) ([]*Action, error) {
	return h.store.ListActions(state, limit)
}
