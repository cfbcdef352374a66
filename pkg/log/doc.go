// Package log provides the logging abstraction used by the tob decoder and
// the tobdump command.
//
// Library code logs through the Logger interface and defaults to the no-op
// logger. The zerolog adapter backs the command line tool:
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	f, err := tob.Open(src, tob.WithLogger(logger))
package log
