// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

func init() {
	// setup default logger
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
}

// Logger get current logger
func Logger() *zap.Logger {
	return logger
}

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options describes where and how the command line tools log.
type Options struct {
	Level      zapcore.Level
	Format     string
	Path       string
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String("log-level", "info", "minimum log level (debug, info, warn, error)")
	flagSet.String("log-format", FormatJSON, "log encoding (json or console)")
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
}

// ParseOptions reads logging flags. Debug mode lowers the level to debug and
// switches to console output unless the flags say otherwise.
func ParseOptions(flagSet *pflag.FlagSet, debug bool) (Options, error) {
	var opts Options
	levelText, _ := flagSet.GetString("log-level")
	if debug && !flagSet.Changed("log-level") {
		levelText = "debug"
	}
	if err := opts.Level.UnmarshalText([]byte(levelText)); err != nil {
		return Options{}, errors.NotValidf("log level %q", levelText)
	}
	opts.Format, _ = flagSet.GetString("log-format")
	if debug && !flagSet.Changed("log-format") {
		opts.Format = FormatConsole
	}
	if opts.Format != FormatJSON && opts.Format != FormatConsole {
		return Options{}, errors.NotValidf("log format %q", opts.Format)
	}
	opts.Path, _ = flagSet.GetString("log-path")
	opts.MaxSize, _ = flagSet.GetInt("log-max-size")
	opts.MaxAge, _ = flagSet.GetInt("log-max-age")
	opts.MaxBackups, _ = flagSet.GetInt("log-max-backups")
	return opts, nil
}

// NewLogger builds a logger writing to stderr and, if a path is set, to a
// rotated log file.
func NewLogger(opts Options) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	if opts.Format == FormatConsole {
		cfg = zap.NewDevelopmentEncoderConfig()
	}
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999999")
	var encoder zapcore.Encoder
	if opts.Format == FormatConsole {
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg)
	}
	// logs go to stderr so that stdout only carries recommendations
	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if opts.Path != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
		}))
	}
	return zap.New(zapcore.NewCore(encoder, zap.CombineWriteSyncers(writers...), opts.Level))
}

// SetLogger replaces the global logger according to the logging flags.
func SetLogger(flagSet *pflag.FlagSet, debug bool) error {
	opts, err := ParseOptions(flagSet, debug)
	if err != nil {
		return errors.Trace(err)
	}
	logger = NewLogger(opts)
	return nil
}

const mysqlPrefix = "mysql://"

// RedactDBURL masks credentials in a data store URL before it is logged.
func RedactDBURL(rawURL string) string {
	if strings.HasPrefix(rawURL, mysqlPrefix) {
		parsed, err := mysql.ParseDSN(rawURL[len(mysqlPrefix):])
		if err != nil {
			return rawURL
		}
		parsed.User = strings.Repeat("x", len(parsed.User))
		parsed.Passwd = strings.Repeat("x", len(parsed.Passwd))
		return mysqlPrefix + parsed.FormatDSN()
	} else {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return rawURL
		}
		if parsed.User == nil {
			return rawURL
		}
		username := parsed.User.Username()
		password, _ := parsed.User.Password()
		parsed.User = url.UserPassword(strings.Repeat("x", len(username)), strings.Repeat("x", len(password)))
		return parsed.String()
	}
}
