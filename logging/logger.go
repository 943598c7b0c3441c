package logging

import (
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

var Logger = &logrus.Logger{
	Out: os.Stdout,
	Formatter: &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		FullTimestamp:          true,
	},
	Hooks: make(logrus.LevelHooks),
	Level: logrus.InfoLevel,
}

// Configure sets the level and output format by name. Unknown levels fall
// back to info; any format other than "json" keeps the text formatter.
func Configure(level, format string) {
	if format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Logger.WithFields(logrus.Fields{"module": "logging", "method": "Configure", "level": level}).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// Caller returns the function skip frames above the one calling Caller,
// as "package.Func". Caller(0) names the calling function itself.
func Caller(skip int) string {
	pc := make([]uintptr, 15)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return "unknown"
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return path.Base(frame.Function)
}
