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

package main

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"code.vegaprotocol.io/betvex/api"
	"code.vegaprotocol.io/betvex/config"
	"code.vegaprotocol.io/betvex/core/broker"
	"code.vegaprotocol.io/betvex/core/contract"
	"code.vegaprotocol.io/betvex/core/ext/httpext"
	"code.vegaprotocol.io/betvex/core/processor"
	"code.vegaprotocol.io/betvex/core/snapshot"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
	"code.vegaprotocol.io/betvex/version"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
)

type NodeCmd struct {
	Home string `long:"home" description:"directory holding the configuration and the state"`

	config.Config
}

var nodeCmd NodeCmd

// lateQueue lets the external adapters be built before the processor
// they hand their continuations to.
type lateQueue struct {
	app *processor.App
}

func (q *lateQueue) Enqueue(ctx context.Context, f func(context.Context)) error {
	return q.app.Enqueue(ctx, f)
}

func (cmd *NodeCmd) Execute(_ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	// cli flags take precedence over the file on every reload
	parseFlagOpt := func(cfg *config.Config) error {
		_, err := flags.NewParser(cfg, flags.Default|flags.IgnoreUnknown).Parse()
		return err
	}
	watcher, err := config.NewWatcher(ctx, log, filepath.Join(cmd.Home, config.ConfigFileName), config.Use(parseFlagOpt))
	if err != nil {
		return err
	}
	cfg := watcher.Get()

	log = logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()
	log.Info("starting betvex",
		logging.String("version", version.Get()),
		logging.String("commit", version.GetCommitHash()),
	)

	metrics.Start(log, cfg.Metrics)

	params := cfg.Params.Get()
	brk := broker.New(log, cfg.Broker)
	clock := processor.NewClock()
	queue := &lateQueue{}
	clients := httpext.New(log, cfg.External, params.USDC, params.VEX, queue)

	c, err := contract.New(log, cfg.Contract, params, brk, clock, clients.USDC, clients.VEX, clients.Pool)
	if err != nil {
		return err
	}

	snap, err := snapshot.New(log, cfg.Snapshot)
	if err != nil {
		return err
	}
	defer snap.Close()
	for _, s := range c.States() {
		if err := snap.Add(s); err != nil {
			return err
		}
	}
	if _, err := snap.LoadLatest(ctx); err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) {
		return err
	}

	app := processor.New(log, cfg.Processor, brk, clock, c, snap)
	queue.app = app

	srv, err := api.New(ctx, log, cfg.API, app, c, brk)
	if err != nil {
		return err
	}

	watcher.OnConfigUpdate(func(cfg config.Config) {
		err := app.Enqueue(ctx, func(context.Context) {
			log.SetLevel(cfg.Logging.Level.Level)
			c.ReloadConf(cfg.Contract)
			app.ReloadConf(cfg.Processor)
			brk.ReloadConf(cfg.Broker)
			snap.ReloadConf(cfg.Snapshot)
		})
		if err != nil {
			log.Warn("configuration update dropped", logging.Error(err))
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Start(gctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	err = g.Wait()

	// the loop is done, nothing else touches the state
	if _, serr := snap.Snapshot(context.Background(), clock.GetTimeNow()); serr != nil {
		log.Error("could not take the final snapshot", logging.Error(serr))
	}
	return err
}

func Node(_ context.Context, parser *flags.Parser) error {
	nodeCmd = NodeCmd{
		Home:   defaultHome(),
		Config: config.NewDefaultConfig(),
	}
	cmd, err := parser.AddCommand("node", "Runs a betvex node", "Runs the contract with its api as defined by the config file", &nodeCmd)
	if err != nil {
		return err
	}

	// Print nested groups under parent's name using `::` as the separator.
	for _, parent := range cmd.Groups() {
		for _, grp := range parent.Groups() {
			grp.ShortDescription = parent.ShortDescription + "::" + grp.ShortDescription
		}
	}
	return nil
}
