package evaluator

import "fmt"

// Logger receives diagnostic output: the scope reports every exception it
// swallows during a digest through one of these.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...any)     { fmt.Print(values...) }
func (l *defaultStdoutLogger) LogLine(values ...any) { fmt.Println(values...) }

// DefaultLogger is the logger used when none is injected
var DefaultLogger Logger = &defaultStdoutLogger{}
