package match

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

var logger = slog.New(zapslog.NewHandler(newCore(true)))

// SetLogger allows setting a custom logger
func SetLogger(l *slog.Logger) {
	logger = l
}

// NewLogger builds a slog logger backed by zap. Production mode writes JSON
// at info level, development mode writes console output at debug level.
// The returned function flushes buffered entries.
func NewLogger(production bool) (*slog.Logger, func() error) {
	core := newCore(production)
	return slog.New(zapslog.NewHandler(core)), core.Sync
}

func newCore(production bool) zapcore.Core {
	if production {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel)
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), zapcore.DebugLevel)
}
