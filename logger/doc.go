/*
Package logger provides the leveled logging used throughout the session broker.

A BrokerLogger prints to stdout with the call site of the logging event.
When SENTRY_DSN is set in the environment, error-level events and above are
also shipped to Sentry.

Credentials never reach a log line: token types stringify masked, and a
LogContext masks the Authorization header of any request it carries.
*/
package logger
