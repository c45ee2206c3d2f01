// Package logging builds the structured logger shared by the binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger tagged with the service name. Dev gets
// human-readable text output, everything else JSON.
func NewLogger(service, env, level string) *logrus.Entry {
	return New(os.Stdout, service, env, level)
}

func New(out io.Writer, service, env, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(out)

	if strings.EqualFold(strings.TrimSpace(env), "dev") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return l.WithField("service", service)
}
