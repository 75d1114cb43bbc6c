package log

import (
	ipfslog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"
)

// SetupSystemLogging configures the process-wide ipfs go-log backend used by
// NewSystemLogger. Unknown levels fall back to info.
func SetupSystemLogging(level string) {
	zapLevel, err := ipfslog.Parse(level)
	if err != nil {
		zapLevel = ipfslog.LevelInfo
	}

	ipfslog.SetupLogging(ipfslog.Config{
		Level:  zapLevel,
		Stderr: true,
	})
}

// NewSystemLogger returns a Logger for the named subsystem of the ipfs go-log
// registry. Subsystem levels can then be tuned with GOLOG_LOG_LEVEL.
func NewSystemLogger(name string) Logger {
	zl := ipfslog.Logger(name).SugaredLogger.Desugar().WithOptions(zap.AddCallerSkip(2))
	return &ZapLogger{lg: zl.Sugar()}
}
