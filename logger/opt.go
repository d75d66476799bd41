package logger

import "log"

// An OptFn is a functional option configuring a BrokerLogger when constructing a new one.
type OptFn func(*BrokerLogger)

// WithEnv sets the environment BrokerLogger is operating in.
func WithEnv(env string) func(*BrokerLogger) {
	return func(l *BrokerLogger) {
		l.env = env
	}
}

// WithLevel sets the log level BrokerLogger uses.
func WithLevel(level LogLevel) func(*BrokerLogger) {
	return func(l *BrokerLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger BrokerLogger uses.
func WithLogger(log *log.Logger) func(*BrokerLogger) {
	return func(l *BrokerLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) func(*BrokerLogger) {
	return func(l *BrokerLogger) {
		l.skip = skip
	}
}
