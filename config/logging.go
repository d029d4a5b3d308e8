package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log is the shared application logger.
var Log = logrus.New()

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "kyc-api.log")
}

// InitLogging prepares the log file and configures the shared logger.
// Output goes to stdout and, when the file can be opened, to the log file
// as well.
func InitLogging() *os.File {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		Log.SetLevel(level)
	}

	if err := os.MkdirAll(filepath.Dir(LogFilePath()), os.ModePerm); err != nil {
		Log.Warnf("Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		Log.Warnf("Failed to open log file, logging to stdout only: %v", err)
		LogWriter = os.Stdout
		Log.SetOutput(LogWriter)
		return nil
	}

	LogWriter = io.MultiWriter(os.Stdout, logFile)
	Log.SetOutput(LogWriter)
	return logFile
}
