package cli

import "go.uber.org/zap"

// newSessionLogger builds the zap logger handed to the orchestrator. Without
// --verbose the logger is a no-op: the NDJSON event stream already carries
// the machine-readable session story.
func newSessionLogger(globals *Globals) *zap.SugaredLogger {
	if globals == nil || !globals.Verbose {
		return zap.NewNop().Sugar()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = parseZapLevel(globals.Level)
	cfg.Encoding = "json"
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
