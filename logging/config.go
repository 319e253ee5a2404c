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

package logging

// LevelValue is a log level that can be read from text, it mirrors
// encoding.LogLevel without importing it.
type LevelValue struct {
	Level
}

func (l *LevelValue) UnmarshalText(text []byte) error {
	var err error
	l.Level, err = ParseLevel(string(text))
	return err
}

func (l *LevelValue) UnmarshalFlag(s string) error {
	return l.UnmarshalText([]byte(s))
}

func (l LevelValue) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Config contains the configurable items for this package.
type Config struct {
	Environment string     `long:"env" choice:"dev" choice:"prod" choice:"test" description:"logger preset"`
	Level       LevelValue `long:"level" description:"minimum level for the root logger"`
	OutputPaths []string   `long:"output" description:"where logs are written, stdout when empty"`
	File        FileConfig `group:"File" namespace:"file"`
}

// FileConfig sets up a size rotated log file written alongside the outputs.
type FileConfig struct {
	Path       string `long:"path" description:"log file, disabled when empty"`
	MaxSizeMB  int    `long:"max-size" description:"size in megabytes that triggers a rotation"`
	MaxBackups int    `long:"max-backups" description:"number of rotated files kept, 0 keeps them all"`
	MaxAgeDays int    `long:"max-age" description:"days a rotated file is kept, 0 keeps them forever"`
	Compress   bool   `long:"compress" description:"gzip rotated files"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		Level:       LevelValue{Level: InfoLevel},
		File: FileConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}
