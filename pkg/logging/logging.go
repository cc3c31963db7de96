// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides the leveled, printf-style logging used by the
// tfjob commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	logger = newLogger(os.Stderr)
	exit   = os.Exit

	errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	color.NoColor = !tty
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      tty,
		DisableColors:    !tty,
	})
	return l
}

// Logger returns the underlying logrus logger, for packages that accept a
// logrus.FieldLogger.
func Logger() *logrus.Logger {
	return logger
}

// SetOutput redirects log output. Intended for tests.
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// SetLevel sets the minimum level that will be logged.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return nil
}

// Debug logs at debug level.
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Info logs at info level.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warn logs at warning level.
func Warn(format string, args ...interface{}) {
	logger.Warnf("%s %s", warnPrefix("warning:"), fmt.Sprintf(format, args...))
}

// Error logs at error level.
func Error(format string, args ...interface{}) {
	logger.Errorf("%s %s", errorPrefix("error:"), fmt.Sprintf(format, args...))
}

// Fatal logs at error level and exits with status 1.
func Fatal(format string, args ...interface{}) {
	Error(format, args...)
	exit(1)
}
