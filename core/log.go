package core

import "github.com/sirupsen/logrus"

// LogrusLog adapts a *logrus.Logger to the Log collaborator, following the
// teacher's logrus.WithFields(...).Info(...) call style (core/ledger.go,
// core/chain_fork_manager.go).
type LogrusLog struct {
	entry *logrus.Logger
}

// NewLogrusLog wraps lg as a Log. A nil lg gets a default logrus.Logger.
func NewLogrusLog(lg *logrus.Logger) *LogrusLog {
	if lg == nil {
		lg = logrus.New()
	}
	return &LogrusLog{entry: lg}
}

func (l *LogrusLog) Info(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *LogrusLog) Warn(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *LogrusLog) Error(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}
