// Package logging configures the commonlog backend for tinyjvm.
package logging

import (
	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
)

// MaxLevel maps a tinyjvm verbosity to the most detailed commonlog level it
// lets through: 0 nothing, 1 info, 2 and above debug.
func MaxLevel(verbosity int) commonlog.Level {
	switch {
	case verbosity <= 0:
		return commonlog.None
	case verbosity == 1:
		return commonlog.Info
	default:
		return commonlog.Debug
	}
}

// Configure sets the global log level and destination. file "" writes to
// stderr. Each call installs a fresh unbuffered simple backend, so every
// message is written before the logging call returns.
func Configure(verbosity int, file string) {
	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)

	v := toCommonlog(verbosity)
	if file == "" {
		commonlog.Configure(v, nil)
		return
	}
	commonlog.Configure(v, &file)
}

func toCommonlog(verbosity int) int {
	switch MaxLevel(verbosity) {
	case commonlog.None:
		return -4
	case commonlog.Info:
		return 1
	}
	return 2
}

// GetLogger returns the named tinyjvm logger.
func GetLogger(name string) commonlog.Logger {
	return commonlog.GetLogger("tinyjvm." + name)
}
