package tgdispatch

import (
	"log"
	"os"
)

// Loggers for informational and error messages. Logging is best-effort
// console output; nothing in the package depends on it.
var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
)

func init() {
	initLoggers()
}

// initLoggers sets up separate loggers for stdout and stderr.
func initLoggers() {
	// InfoLogger writes to stdout with specific flags.
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)

	// ErrorLogger writes to stderr with specific flags.
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// SetLoggers replaces the package loggers. A nil argument leaves the
// corresponding logger unchanged.
func SetLoggers(info, errLog *log.Logger) {
	if info != nil {
		InfoLogger = info
	}
	if errLog != nil {
		ErrorLogger = errLog
	}
}
