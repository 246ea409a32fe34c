// Package logging builds the service's zap loggers.
//
// Production loggers write JSON; development loggers write colored console
// output. Components receive a named *zap.Logger and default to zap.NewNop()
// when none is supplied.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	coord := loader.New(reg, installer).WithLogger(logger.Logger)
package logging
