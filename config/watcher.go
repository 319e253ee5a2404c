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

package config

import (
	"context"
	"sync"
	"time"

	"code.vegaprotocol.io/betvex/logging"

	"github.com/fsnotify/fsnotify"
)

const namedLogger = "cfgwatcher"

// Watcher reloads the configuration file when it changes and notifies the
// listeners.
type Watcher struct {
	log  *logging.Logger
	cfg  Config
	path string

	mu        sync.Mutex
	listeners []func(Config)
	cfgOpts   []func(*Config) error
}

type Option func(w *Watcher)

// Use applies fn on top of every configuration read from the file, e.g.
// command line flags that take precedence.
func Use(fn func(*Config) error) Option {
	return func(w *Watcher) {
		w.cfgOpts = append(w.cfgOpts, fn)
	}
}

// NewWatcher loads the file at path and starts watching it until ctx is
// done.
func NewWatcher(ctx context.Context, log *logging.Logger, path string, opts ...Option) (*Watcher, error) {
	log = log.Named(namedLogger)
	// any configuration change is worth reporting
	log.SetLevel(logging.DebugLevel)
	w := &Watcher{
		log:  log,
		path: path,
	}
	for _, opt := range opts {
		opt(w)
	}
	cfg, err := w.read()
	if err != nil {
		return nil, err
	}
	w.cfg = *cfg

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	w.log.Info("config watcher started successfully", logging.String("config", w.path))
	go w.watch(ctx, watcher)
	return w, nil
}

// Get return the last update of the configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// OnConfigUpdate registers functions called with every new configuration.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fns...)
}

func (w *Watcher) read() (*Config, error) {
	cfg, err := Read(w.path)
	if err != nil {
		return nil, err
	}
	for _, fn := range w.cfgOpts {
		if err := fn(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (w *Watcher) reload() error {
	cfg, err := w.read()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.cfg = *cfg
	listeners := append([]func(Config){}, w.listeners...)
	w.mu.Unlock()

	for _, f := range listeners {
		f(*cfg)
	}
	return nil
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Rename) {
				// editors replace the file, give them time to write the new one
				time.Sleep(50 * time.Millisecond)
				_ = watcher.Add(w.path)
			}
			w.log.Info("configuration updated", logging.String("event", event.Name))
			if err := w.reload(); err != nil {
				w.log.Error("unable to load configuration", logging.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			w.log.Debug("config watcher stopped")
			return
		}
	}
}
