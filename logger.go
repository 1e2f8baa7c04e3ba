package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is the process-wide debug logger. It discards everything until
// initLogger is called with a file, since stdout belongs to the TUI.
var logger = zap.NewNop().Sugar()

// initLogger sends debug output to path. The returned func flushes and
// closes the file.
func initLogger(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(f), zapcore.DebugLevel)
	l := zap.New(core, zap.AddCaller())
	logger = l.Sugar()

	return func() {
		_ = l.Sync()
		_ = f.Close()
	}, nil
}
