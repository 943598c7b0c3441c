package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	formatter := Logger.Formatter
	defer func() {
		Logger.SetLevel(logrus.InfoLevel)
		Logger.SetFormatter(formatter)
	}()

	Configure("debug", "text")
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Logger.Formatter)

	Configure("not-a-level", "json")
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Logger.Formatter)
}

func namedCaller() string { return Caller(1) }

func TestCaller(t *testing.T) {
	assert.Equal(t, "logging.TestCaller", Caller(0))
	assert.Equal(t, "logging.TestCaller", namedCaller())
}
