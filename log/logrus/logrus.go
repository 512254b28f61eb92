package logrus

import (
	"github.com/sirupsen/logrus"

	blitzcache "github.com/chanido/blitzcache-sub001"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ blitzcache.Logger = LogrusLogger{}

func (l LogrusLogger) Debug(msg string, f blitzcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f blitzcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Info(msg)
}
func (l LogrusLogger) Warn(msg string, f blitzcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Warn(msg)
}
func (l LogrusLogger) Error(msg string, f blitzcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
