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

package version

import (
	"runtime/debug"
)

var (
	commitHash = ""
	// overridden at link time with -ldflags "-X code.vegaprotocol.io/betvex/version.release=..."
	release = "v0.1.0+dev"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	modified := false
	for _, v := range info.Settings {
		switch v.Key {
		case "vcs.revision":
			commitHash = v.Value
		case "vcs.modified":
			modified = v.Value == "true"
		}
	}
	if modified {
		commitHash += "-modified"
	}
}

func Get() string {
	return release
}

func GetCommitHash() string {
	return commitHash
}
