// ABOUTME: Logging hook for relay nodes
// ABOUTME: Accepts any Printf-style logger such as *log.Logger
package relay

// Logger records node events. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// DiscardLogger drops every event
var DiscardLogger Logger = discardLogger{}
