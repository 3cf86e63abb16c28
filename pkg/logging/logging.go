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

// Package logging provides the shared leveled logger for the launcher.
// All output goes to stderr so stdout stays clean for machine-readable
// results (e.g. --dry-run command dumps).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// SetDebug toggles debug-level output.
func SetDebug(enabled bool) {
	if enabled {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info logs a formatted informational message.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Error logs a formatted error message.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// Fatal logs a formatted error message and exits with a non-zero status.
func Fatal(format string, args ...any) {
	log.Fatalf(format, args...)
}
