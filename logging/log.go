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

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging priority, the values match the zap core levels.
type Level int8

const (
	DebugLevel Level = -1
	InfoLevel  Level = 0
	WarnLevel  Level = 1
	ErrorLevel Level = 2
	PanicLevel Level = 4
	FatalLevel Level = 5
)

var levelNames = map[string]Level{
	"debug":   DebugLevel,
	"info":    InfoLevel,
	"warn":    WarnLevel,
	"warning": WarnLevel,
	"error":   ErrorLevel,
	"panic":   PanicLevel,
	"fatal":   FatalLevel,
}

// ParseLevel parse a log level from a string.
func ParseLevel(l string) (Level, error) {
	lvl, ok := levelNames[strings.ToLower(l)]
	if !ok {
		return Level(100), fmt.Errorf("log level \"%s\" is not supported", l)
	}
	return lvl, nil
}

func (l Level) String() string {
	return l.ZapLevel().String()
}

func (l Level) ZapLevel() zapcore.Level {
	return zapcore.Level(l)
}

// Logger wraps a zap logger, every named child owns its level so engines
// can be tuned independently on config reload.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
	build func(zap.AtomicLevel) *zap.Logger
	name  string
}

// newLogger builds loggers from cfg, a non nil file receives a copy of
// every entry.
func newLogger(cfg zap.Config, file zapcore.WriteSyncer) *Logger {
	build := func(lvl zap.AtomicLevel) *zap.Logger {
		c := cfg
		c.Level = lvl
		var opts []zap.Option
		if file != nil {
			opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
				return zapcore.NewTee(core, zapcore.NewCore(encoderOf(c), file, lvl))
			}))
		}
		l, err := c.Build(opts...)
		if err != nil {
			panic(err)
		}
		return l
	}
	lvl := zap.NewAtomicLevelAt(cfg.Level.Level())
	return &Logger{
		Logger: build(lvl),
		level:  lvl,
		build:  build,
	}
}

func (log *Logger) GetLevel() Level {
	return Level(log.level.Level())
}

func (log *Logger) GetName() string {
	return log.name
}

// Named returns a child logger, segments are joined by periods.
func (log *Logger) Named(name string) *Logger {
	lvl := zap.NewAtomicLevelAt(log.level.Level())
	full := name
	if log.name != "" {
		full = log.name + "." + name
	}
	return &Logger{
		Logger: log.build(lvl).Named(full),
		level:  lvl,
		build:  log.build,
		name:   full,
	}
}

func (log *Logger) SetLevel(level Level) {
	if log.level.Level() != level.ZapLevel() {
		log.level.SetLevel(level.ZapLevel())
	}
}

// With returns a logger carrying the given fields, it shares its level with
// the parent.
func (log *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: log.Logger.With(fields...),
		level:  log.level,
		build:  log.build,
		name:   log.name,
	}
}

// AtExit flushes the logs, meant to be deferred right after creation.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func devConfig() zap.Config {
	return zap.Config{
		Level:       zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Development: true,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			CallerKey:      "C",
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "L",
			LineEnding:     "\n",
			MessageKey:     "M",
			NameKey:        "N",
			TimeKey:        "T",
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func prodConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			CallerKey:      "caller",
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "level",
			LineEnding:     "\n",
			MessageKey:     "message",
			NameKey:        "logger",
			StacktraceKey:  "stacktrace",
			TimeKey:        "@timestamp",
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func encoderOf(c zap.Config) zapcore.Encoder {
	if c.Encoding == "console" {
		return zapcore.NewConsoleEncoder(c.EncoderConfig)
	}
	return zapcore.NewJSONEncoder(c.EncoderConfig)
}

// NewDevLogger creates a console logger at debug level.
func NewDevLogger() *Logger {
	return newLogger(devConfig(), nil)
}

// NewProdLogger creates a json logger at info level.
func NewProdLogger() *Logger {
	return newLogger(prodConfig(), nil)
}

// NewTestLogger creates a logger for unit tests, only warnings and above
// are written.
func NewTestLogger() *Logger {
	l := NewDevLogger()
	l.SetLevel(WarnLevel)
	return l
}

// NewLoggerFromConfig creates a logger according to the given custom config.
func NewLoggerFromConfig(cfg Config) *Logger {
	var zc zap.Config
	switch cfg.Environment {
	case "dev", "test":
		zc = devConfig()
	default:
		zc = prodConfig()
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.Level.ZapLevel())

	var file zapcore.WriteSyncer
	if len(cfg.File.Path) > 0 {
		file = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}
	return newLogger(zc, file)
}
