package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex

	level     = logrus.InfoLevel
	formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
)

// Init sets the level and format ("json" or "text") of every logger.
func Init(lvl, format string) error {
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		return err
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()

	level = parsed
	if strings.EqualFold(format, "json") {
		formatter = &logrus.JSONFormatter{}
	} else {
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	for _, l := range loggers {
		l.SetLevel(level)
		l.SetFormatter(formatter)
	}
	return nil
}

// GetLogger returns the named logger, creating it on first use.
func GetLogger(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetFormatter(formatter)
	l.AddHook(nameHook(name))
	loggers[name] = l
	return l
}

type nameHook string

func (nameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h nameHook) Fire(e *logrus.Entry) error {
	e.Data["logger"] = string(h)
	return nil
}
