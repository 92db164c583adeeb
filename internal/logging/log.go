package logging

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleLog is the log file value that keeps output on stderr.
const ConsoleLog = "console"

// InitLog parses and sets the log level and destination. Any logFile other
// than "" or ConsoleLog is written through a rotating file logger.
func InitLog(logLevel string, logFile string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed parsing log-level %s: %w", logLevel, err)
	}

	if logFile != "" && logFile != ConsoleLog {
		log.SetOutput(&lumberjack.Logger{
			Filename:   filepath.ToSlash(logFile),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		})
	} else {
		log.SetOutput(os.Stderr)
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.SetLevel(level)
	return nil
}
