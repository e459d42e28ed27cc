/*
 * Copyright (c) 2019 VMware, Inc.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
 * associated documentation files (the "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is furnished to do
 * so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all copies or substantial
 * portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
 * NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
 * WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

// Package logger defines the logging contract used throughout the library.
// Concrete implementations are provided for logrus (the default), zap and
// zerolog; applications can plug in any other backend by implementing Logger.
package logger

// Fields is the type to pass to WithFields for structured logging.
type Fields map[string]interface{}

const (
	// Debug has verbose message
	Debug = "debug"
	// Info is default log level
	Info = "info"
	// Warn is for logging messages about possible issues
	Warn = "warn"
	// Error is for logging errors
	Error = "error"
	// Fatal is for logging fatal messages. The system shuts down after logging the message.
	Fatal = "fatal"
)

// Logger is the logging contract of the library.
type Logger interface {
	Debugf(format string, args ...interface{})

	Infof(format string, args ...interface{})

	Warnf(format string, args ...interface{})

	Errorf(format string, args ...interface{})

	Fatalf(format string, args ...interface{})

	Panicf(format string, args ...interface{})

	WithFields(keyValues Fields) Logger
}

// Configuration stores the config for a logger.
// For some loggers there can only be one level across writers. For such
// loggers the console level takes precedence.
type Configuration struct {
	EnableConsole     bool
	ConsoleJSONFormat bool
	ConsoleLevel      string
	EnableFile        bool
	FileJSONFormat    bool
	FileLevel         string
	Filename          string
	// MaxSizeMB is the maximum size of the log file in megabytes before rotation.
	MaxSizeMB int
	// MaxAgeDays is the maximum number of days to retain old log files.
	MaxAgeDays int
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int
	// LocalTime formats the timestamps of backup files in local time instead of UTC.
	LocalTime bool
}

const (
	defaultMaxSizeMB  = 100
	defaultMaxAgeDays = 7
	defaultMaxBackups = 5
)

// GetDefaultLogger returns a logger backed by logrus that logs to the console
// at info level.
func GetDefaultLogger() Logger {
	config := Configuration{
		EnableConsole:     true,
		ConsoleLevel:      Info,
		ConsoleJSONFormat: false,
	}
	return NewLogrusLoggerWithConfig(config)
}

func normalizeConfig(config *Configuration) {
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = defaultMaxSizeMB
	}

	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = defaultMaxAgeDays
	}

	if config.MaxBackups < 0 {
		config.MaxBackups = defaultMaxBackups
	}
}
