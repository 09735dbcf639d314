package workflows

import (
	"fmt"

	"github.com/rs/zerolog"
	tlog "go.temporal.io/sdk/log"
)

// Logger adapts zerolog to the Temporal SDK logger interface.
type Logger struct {
	zl zerolog.Logger
}

var _ tlog.Logger = (*Logger)(nil)

// NewLogger wraps a zerolog logger for client.Options.Logger.
func NewLogger(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.emit(l.zl.Debug(), msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...interface{})  { l.emit(l.zl.Info(), msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...interface{})  { l.emit(l.zl.Warn(), msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.emit(l.zl.Error(), msg, keyvals) }

func (l *Logger) emit(ev *zerolog.Event, msg string, keyvals []interface{}) {
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 == len(keyvals) {
			ev = ev.Interface(key, nil)
			break
		}
		if err, ok := keyvals[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, keyvals[i+1])
	}
	ev.Msg(msg)
}
