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
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"code.vegaprotocol.io/betvex/config"
	"code.vegaprotocol.io/betvex/core/snapshot"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/version"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
)

// snapshots from another release are highlighted
var yellow = color.New(color.FgYellow).SprintFunc()

type SnapshotsCmd struct {
	Home string `long:"home" description:"directory holding the configuration and the state"`
}

func (cmd *SnapshotsCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromConfig(logging.Config{Environment: "prod", Level: logging.LevelValue{Level: logging.WarnLevel}})
	defer log.AtExit()

	cfg, err := config.Read(filepath.Join(cmd.Home, config.ConfigFileName))
	if err != nil {
		return err
	}
	snap, err := snapshot.New(log, cfg.Snapshot)
	if err != nil {
		return err
	}
	defer snap.Close()

	list, err := snap.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no snapshots")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTAKEN\tSIZE\tHASH\tVERSION")
	for _, s := range list {
		v := s.Version
		if v != version.Get() {
			v = yellow(v)
		}
		fmt.Fprintf(w, "%d\t%s (%s)\t%s\t%s\t%s\n",
			s.Seq,
			s.Time.Format(time.RFC3339),
			humanize.Time(s.Time),
			humanize.Bytes(uint64(s.Size)),
			s.Hash,
			v,
		)
	}
	return w.Flush()
}

func Snapshots(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("snapshots", "List stored snapshots", "List the snapshots stored in the snapshot database", &SnapshotsCmd{Home: defaultHome()})
	return err
}
