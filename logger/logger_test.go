package logger_test

import (
	"bytes"
	"io"
	"log"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/costtrail/authbroker/logger"
)

var (
	logLevelRegexp = regexp.MustCompile(`^\[[A-Z]+\]`)
	fpRegexp       = regexp.MustCompile(`logger_test\.go:\d+`)
	msgRegexp      = regexp.MustCompile(`'(.*)'`)
)

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func TestBrokerLoggerLevels(t *testing.T) {
	// Arrange
	b := new(bytes.Buffer)
	l := logger.New(logger.WithLogger(newTestLogger(b)), logger.WithLevel(logger.LogLevelWarn))

	// Act
	l.Info("should not appear", nil)

	// Assert
	require.Zero(t, b.Len())

	// Act
	l.Warn("watch out", nil)

	// Assert
	line := b.String()
	require.Regexp(t, logLevelRegexp, line)
	require.Regexp(t, fpRegexp, line)
	require.Equal(t, "watch out", msgRegexp.FindStringSubmatch(line)[1])
}

func TestBrokerLoggerContext(t *testing.T) {
	// Arrange
	b := new(bytes.Buffer)
	l := logger.New(logger.WithLogger(newTestLogger(b)), logger.WithLevel(logger.LogLevelDebug))

	// Act
	l.Debug("exchanging", &logger.LogContext{Data: map[string]any{"shape": "jwt"}})

	// Assert
	require.Contains(t, b.String(), "log_context:")
	require.Contains(t, b.String(), "shape")
	require.Contains(t, b.String(), "jwt")
}
