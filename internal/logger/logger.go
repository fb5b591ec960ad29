package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"expresso/pkg/color"
)

// Init initializes the default logger
func Init(debug, noColor bool) {
	log.SetDefault(New(os.Stderr, debug, noColor))
}

// New builds a logger writing to w. Debug output is dropped unless debug
// is set.
func New(w io.Writer, debug, noColor bool) *log.Logger {
	l := log.NewWithOptions(w,
		log.Options{
			ReportCaller:    debug,
			ReportTimestamp: false, // the REPL prompt already orders entries
			TimeFormat:      time.RFC3339,
			Prefix:          "EXPRESSO",
		})

	l.SetLevel(log.WarnLevel)
	if debug {
		l.SetLevel(log.DebugLevel)
	}

	l.SetColorProfile(color.Profile())
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}
	return l
}
