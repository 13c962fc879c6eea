// Package logging 建立應用程式共用的 logrus logger
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New 依 level 建立 logger；無法解析的 level 退回 info
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput 同 New，但寫入指定的 io.Writer
func NewWithOutput(level string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(Level(level))
	return logger
}

// Level 解析 LOG_LEVEL
func Level(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
