package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var root = New("info")

// New builds a JSON logger writing to stderr at the given level. Unknown
// levels fall back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// SetLevel adjusts the process logger, typically once from config at startup.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		root.SetLevel(lvl)
	}
}

// NewDefault returns an entry tagged with the component name.
func NewDefault(component string) *logrus.Entry {
	return root.WithField("component", component)
}
