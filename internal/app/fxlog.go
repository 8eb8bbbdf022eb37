package app

import (
	"go.uber.org/fx/fxevent"

	"github.com/jwalitptl/healthhub-client/pkg/logger"
)

// fxLogger reports container events through the application logger.
// Only failures are logged above debug.
type fxLogger struct {
	log *logger.Logger
}

func NewFxLogger(log *logger.Logger) fxevent.Logger {
	return &fxLogger{log: log.With("fx")}
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.Provided:
		if e.Err != nil {
			l.log.Error(e.Err, "provide failed", "constructor", e.ConstructorName)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.log.Error(e.Err, "invoke failed", "function", e.FunctionName)
		}
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.log.Error(e.Err, "start hook failed", "callee", e.FunctionName)
		} else {
			l.log.Debug("start hook executed", "callee", e.FunctionName, "runtime", e.Runtime.String())
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.log.Error(e.Err, "stop hook failed", "callee", e.FunctionName)
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.log.Error(e.Err, "start failed")
		} else {
			l.log.Debug("started")
		}
	case *fxevent.Stopped:
		if e.Err != nil {
			l.log.Error(e.Err, "stop failed")
		}
	}
}
