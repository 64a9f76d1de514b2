// Package log provides the structured logger threaded explicitly through
// the generation pipeline.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the subset of *logrus.Entry the pipeline depends on. Keeping it
// as an interface lets tests substitute a buffering logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

type entryLogger struct {
	entry *logrus.Entry
}

// New builds a Logger writing to w at the given level name ("debug", "info",
// "warn", "error"). An unrecognized level falls back to "info".
func New(w io.Writer, level string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	l.SetLevel(parsed)

	return &entryLogger{entry: logrus.NewEntry(l)}
}

// Default returns a Logger writing to stderr at info level, used when a
// caller has no reason to configure one explicitly.
func Default() Logger {
	return New(os.Stderr, "info")
}

func (l *entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *entryLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *entryLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

// Buffer returns a Logger and the buffer it writes to, used by the
// multi-parameter-generation worker model to buffer one worker's log
// output for printing under a per-parameter-set header on completion.
func Buffer(level string) (Logger, *bufferedWriter) {
	bw := &bufferedWriter{}
	return New(bw, level), bw
}

type bufferedWriter struct {
	data []byte
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufferedWriter) String() string { return string(b.data) }
