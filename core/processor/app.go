// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package processor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/txn"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrStopped        = errors.New("processor stopped")
	ErrAlreadyStarted = errors.New("processor already started")
	ErrUnknownCommand = errors.New("unknown command")
)

// Broker ...
type Broker interface {
	Send(e events.Event)
}

// Snapshot persists the contract state.
type Snapshot interface {
	ShouldSnapshot(now time.Time) bool
	Snapshot(ctx context.Context, now time.Time) ([]byte, error)
}

// Contract is the aggregate the processor executes transactions against.
type Contract interface {
	ChangeAdmin(ctx context.Context, caller, newAdmin string) error
	CreateMatch(ctx context.Context, caller, game, team1, team2 string, odds1, odds2 num.Decimal, date string) (*types.Match, error)
	EndBetting(ctx context.Context, caller, matchID string) error
	FinishMatch(ctx context.Context, caller, matchID string, winner types.Team) (*types.SettlementOutcome, error)
	CancelMatch(ctx context.Context, caller, matchID string) error
	RetryLoss(ctx context.Context, caller, matchID string) error
	FlushTreasury(ctx context.Context, caller string) (*num.Uint, error)
	FtOnTransfer(ctx context.Context, token, sender string, amount *num.Uint, msg string) (*num.Uint, error)
	Claim(ctx context.Context, caller string, betID uint64) (*num.Uint, error)
	Stake(ctx context.Context, caller string, amount *num.Uint) (*num.Uint, error)
	StakeAll(ctx context.Context, caller string) (*num.Uint, error)
	Unstake(ctx context.Context, caller string, amount *num.Uint) (*num.Uint, error)
	UnstakeAll(ctx context.Context, caller string) (*num.Uint, error)
	Withdraw(ctx context.Context, caller string, amount *num.Uint) error
	WithdrawAll(ctx context.Context, caller string) (*num.Uint, error)
	PerformStakeSwap(ctx context.Context, caller string) (*types.StakeSwap, error)
}

// Handler executes one transaction and returns its result value.
type Handler func(ctx context.Context, tx *txn.Tx) (any, error)

// Result is returned to the submitter once the transaction executed.
type Result struct {
	TxID  string `json:"tx_id"`
	Value any    `json:"result,omitempty"`
	Error string `json:"error,omitempty"`
	err   error
}

func NewResult(txID string, value any, err error) *Result {
	r := &Result{TxID: txID, err: err}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Value = value
	return r
}

func (r *Result) Err() error {
	return r.err
}

// App runs every transaction, continuation and query on a single
// goroutine, in the order they were accepted.
type App struct {
	log      *logging.Logger
	cfg      Config
	broker   Broker
	clock    *Clock
	contract Contract
	snapshot Snapshot

	handlers map[txn.Command]Handler
	// results of recent transactions by id
	replays  *lru.Cache[string, *Result]
	work     chan func(context.Context)
	started  atomic.Bool
	done     chan struct{}
}

func New(
	log *logging.Logger,
	cfg Config,
	broker Broker,
	clock *Clock,
	contract Contract,
	snapshot Snapshot,
) *App {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	size := cfg.QueueSize
	if size < 0 {
		size = 0
	}

	app := &App{
		log:      log,
		cfg:      cfg,
		broker:   broker,
		clock:    clock,
		contract: contract,
		snapshot: snapshot,
		handlers: map[txn.Command]Handler{},
		work:     make(chan func(context.Context), size),
		done:     make(chan struct{}),
	}
	if cfg.ReplayWindow > 0 {
		// only fails on a non positive size
		app.replays, _ = lru.New[string, *Result](cfg.ReplayWindow)
	}

	app.HandleDeliverTx(txn.ChangeAdminCommand,
		app.SendTransactionResult(app.DeliverChangeAdmin)).
		HandleDeliverTx(txn.CreateMatchCommand,
			app.SendTransactionResult(app.DeliverCreateMatch)).
		HandleDeliverTx(txn.EndBettingCommand,
			app.SendTransactionResult(app.DeliverEndBetting)).
		HandleDeliverTx(txn.FinishMatchCommand,
			app.SendTransactionResult(app.DeliverFinishMatch)).
		HandleDeliverTx(txn.CancelMatchCommand,
			app.SendTransactionResult(app.DeliverCancelMatch)).
		HandleDeliverTx(txn.RetryLossCommand,
			app.SendTransactionResult(app.DeliverRetryLoss)).
		HandleDeliverTx(txn.FlushTreasuryCommand,
			app.SendTransactionResult(app.DeliverFlushTreasury)).
		// user commands
		HandleDeliverTx(txn.FtOnTransferCommand,
			app.SendTransactionResult(app.DeliverFtOnTransfer)).
		HandleDeliverTx(txn.ClaimCommand,
			app.SendTransactionResult(app.DeliverClaim)).
		HandleDeliverTx(txn.StakeCommand,
			app.SendTransactionResult(app.DeliverStake)).
		HandleDeliverTx(txn.StakeAllCommand,
			app.SendTransactionResult(app.DeliverStakeAll)).
		HandleDeliverTx(txn.UnstakeCommand,
			app.SendTransactionResult(app.DeliverUnstake)).
		HandleDeliverTx(txn.UnstakeAllCommand,
			app.SendTransactionResult(app.DeliverUnstakeAll)).
		HandleDeliverTx(txn.WithdrawCommand,
			app.SendTransactionResult(app.DeliverWithdraw)).
		HandleDeliverTx(txn.WithdrawAllCommand,
			app.SendTransactionResult(app.DeliverWithdrawAll)).
		HandleDeliverTx(txn.PerformStakeSwapCommand,
			app.SendTransactionResult(app.DeliverPerformStakeSwap))

	return app
}

// HandleDeliverTx registers the handler of a command.
func (app *App) HandleDeliverTx(cmd txn.Command, h Handler) *App {
	app.handlers[cmd] = h
	return app
}

// ReloadConf updates the internal configuration.
func (app *App) ReloadConf(cfg Config) {
	app.log.Info("reloading configuration")
	if app.log.GetLevel() != cfg.Level.Get() {
		app.log.Info("updating log level",
			logging.String("old", app.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		app.log.SetLevel(cfg.Level.Get())
	}
	// the queue size and the replay window only apply on restart
	app.cfg.Level = cfg.Level
	app.cfg.SubmitTimeout = cfg.SubmitTimeout
}

// SendTransactionResult emits the outcome of the transaction on the broker.
func (app *App) SendTransactionResult(h Handler) Handler {
	return func(ctx context.Context, tx *txn.Tx) (any, error) {
		v, err := h(ctx, tx)
		if err != nil {
			app.broker.Send(events.NewTransactionResultEventFailure(
				ctx, tx.ID, tx.Caller, tx.Command.Path(), err,
			))
			return nil, err
		}
		app.broker.Send(events.NewTransactionResultEventSuccess(
			ctx, tx.ID, tx.Caller, tx.Command.Path(),
		))
		return v, nil
	}
}

// Start runs the loop until ctx is cancelled.
func (app *App) Start(ctx context.Context) error {
	if !app.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(app.done)
	app.log.Info("processor started")
	for {
		select {
		case <-ctx.Done():
			app.log.Info("processor stopped", logging.Error(ctx.Err()))
			return nil
		case f := <-app.work:
			app.run(ctx, f)
		}
	}
}

func (app *App) run(ctx context.Context, f func(context.Context)) {
	now := app.clock.Tick()
	f(ctx)
	if app.snapshot == nil || !app.snapshot.ShouldSnapshot(now) {
		return
	}
	hash, err := app.snapshot.Snapshot(ctx, now)
	if err != nil {
		app.log.Error("could not take snapshot", logging.Error(err))
		return
	}
	app.log.Debug("snapshot taken", logging.Binary("hash", hash))
}

func (app *App) push(ctx context.Context, f func(context.Context)) error {
	select {
	case <-app.done:
		return ErrStopped
	default:
	}
	select {
	case app.work <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-app.done:
		return ErrStopped
	}
}

// Submit queues the transaction and waits for its result. A missing id is
// generated.
func (app *App) Submit(ctx context.Context, tx *txn.Tx) (*Result, error) {
	if len(tx.ID) == 0 {
		tx.ID = uuid.NewString()
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if timeout := app.cfg.SubmitTimeout.Get(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resc := make(chan *Result, 1)
	err := app.push(ctx, func(ctx context.Context) {
		resc <- app.deliver(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	select {
	case res := <-resc:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-app.done:
		return nil, ErrStopped
	}
}

func (app *App) deliver(ctx context.Context, tx *txn.Tx) *Result {
	if app.replays == nil {
		return app.execute(ctx, tx)
	}
	if res, ok := app.replays.Get(tx.ID); ok {
		app.log.Debug("transaction already executed",
			logging.String("tx-id", tx.ID),
			logging.String("command", tx.Command.String()),
		)
		metrics.TransactionCounterInc(tx.Command.Path(), "replay")
		return res
	}
	res := app.execute(ctx, tx)
	app.replays.Add(tx.ID, res)
	return res
}

func (app *App) execute(ctx context.Context, tx *txn.Tx) *Result {
	defer metrics.EngineTimeCounterAdd(time.Now(), "processor", tx.Command.Path())

	var (
		v   any
		err error
	)
	h, ok := app.handlers[tx.Command]
	if !ok {
		err = fmt.Errorf("%w %v: %w", ErrUnknownCommand, tx.Command, types.ErrInvalidArgument)
	} else {
		if tx.Command.IsAdminCommand() {
			app.log.Info("admin command",
				logging.String("command", tx.Command.String()),
				logging.PartyID(tx.Caller),
				logging.String("tx-id", tx.ID),
			)
		}
		v, err = h(ctx, tx)
	}

	if err != nil {
		metrics.TransactionCounterInc(tx.Command.Path(), "error")
		app.log.Debug("transaction failed",
			logging.String("tx-id", tx.ID),
			logging.String("command", tx.Command.String()),
			logging.PartyID(tx.Caller),
			logging.Error(err),
		)
		return NewResult(tx.ID, nil, err)
	}
	metrics.TransactionCounterInc(tx.Command.Path(), "success")
	return NewResult(tx.ID, v, nil)
}

// Enqueue schedules a continuation of an external call.
func (app *App) Enqueue(ctx context.Context, f func(context.Context)) error {
	return app.push(ctx, f)
}

// Query runs a read only function inside the loop.
func (app *App) Query(ctx context.Context, f func() (any, error)) (any, error) {
	type answer struct {
		v   any
		err error
	}
	ansc := make(chan answer, 1)
	err := app.push(ctx, func(context.Context) {
		v, err := f()
		ansc <- answer{v, err}
	})
	if err != nil {
		return nil, err
	}
	select {
	case a := <-ansc:
		return a.v, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-app.done:
		return nil, ErrStopped
	}
}
