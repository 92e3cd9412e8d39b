// Package logging sets up the process-wide logrus logger.
package logging

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// severities maps logrus levels to the severity names log collectors such
// as Cloud Logging understand.
var severities = map[log.Level]string{
	log.PanicLevel: "EMERGENCY",
	log.FatalLevel: "CRITICAL",
	log.ErrorLevel: "ERROR",
	log.WarnLevel:  "WARNING",
	log.InfoLevel:  "INFO",
	log.DebugLevel: "DEBUG",
	log.TraceLevel: "DEBUG",
}

// Configure sets the level and output format of logger. format is "text"
// or "json"; JSON entries carry a severity field unless the caller set one.
func Configure(logger *log.Logger, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	switch format {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
		logger.AddHook(severityHook{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	logger.SetLevel(lvl)
	return nil
}

type severityHook struct{}

func (severityHook) Levels() []log.Level {
	return log.AllLevels
}

func (severityHook) Fire(entry *log.Entry) error {
	if _, ok := entry.Data["severity"]; !ok {
		entry.Data["severity"] = severities[entry.Level]
	}
	return nil
}
