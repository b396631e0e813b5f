package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	ColorNone = iota
	ColorRed
	ColorGreen
)

const eventTimeFormat = "2006/01/02 15:04:05"

// eventFormatter prints "date time message", the way events have always
// looked on stdout.
type eventFormatter struct{}

func (eventFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Time.Format(eventTimeFormat) + " " + e.Message + "\n"), nil
}

type Logger struct {
	infoLogger  *logrus.Logger
	errorLogger *logrus.Logger
	eventLogger *logrus.Logger
}

// NewLogger writes info and events to stdout, errors and debug output to
// stderr. Debug output is only written if debug is set.
func NewLogger(debug bool) *Logger {
	return newLogger(os.Stdout, os.Stderr, debug)
}

func newLogger(stdout, stderr io.Writer, debug bool) *Logger {
	info := logrus.New()
	info.SetOutput(stdout)
	info.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	errs := logrus.New()
	errs.SetOutput(stderr)
	errs.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		errs.SetLevel(logrus.DebugLevel)
	}

	events := logrus.New()
	events.SetOutput(stdout)
	events.SetFormatter(eventFormatter{})

	return &Logger{
		infoLogger:  info,
		errorLogger: errs,
		eventLogger: events,
	}
}

// Infof writes an info message to stdout
func (l *Logger) Infof(format string, v ...interface{}) {
	l.infoLogger.Infof(format, v...)
}

// Errorf writes an error message to stderr
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.errorLogger.Errorf(format, v...)
}

// Debugf writes a debug message to stderr if debugging is enabled
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.errorLogger.Debugf(format, v...)
}

// Eventf writes an event with timestamp to stdout
func (l *Logger) Eventf(color int, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	switch color {
	case ColorRed:
		msg = fmt.Sprintf("\x1b[31;1m%s\x1b[0m", msg)
	case ColorGreen:
		msg = fmt.Sprintf("\x1b[32;1m%s\x1b[0m", msg)
	default:
	}

	l.eventLogger.Info(msg)
}

// Diagnostics is the structured logger library code should log to.
func (l *Logger) Diagnostics() logrus.FieldLogger {
	return l.errorLogger
}
