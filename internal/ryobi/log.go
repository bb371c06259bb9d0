package ryobi

// Logger is the narrow logging surface this package needs. The logging
// package's Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func logDebug(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func logWarn(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logError(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}
