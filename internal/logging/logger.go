package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Console output stays human readable; the
// optional file sink gets JSON for later ingestion. A file sink that cannot
// be opened falls back to console only with a printed warning, never a
// startup failure.
func New(level, file string, verbose bool) *zap.Logger {
	lvl := parseLevel(level)
	if verbose {
		lvl = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), lvl),
	}

	if file != "" {
		if sink, err := openFileSink(file); err != nil {
			fmt.Printf("[WARN] Не удалось открыть файл логов %s: %v\n", file, err)
			fmt.Printf("[WARN] Логи будут выводиться только в stdout\n")
		} else {
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, lvl))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func openFileSink(file string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
