package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide structured logger. Nil-checks are not needed once
// Init has run from main.
var Log *zap.Logger

// Init builds the global logger. Development mode uses the human-readable
// console encoder, release mode structured JSON.
func Init(mode string) error {
	var (
		l   *zap.Logger
		err error
	)
	if mode == "release" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
