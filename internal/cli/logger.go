package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aurora-planner/aurora/internal/settings"
)

// NewLogger writes CLI diagnostics to a rotating file under dataDir/logs.
// With debug set it also mirrors them to stderr.
func NewLogger(dataDir string, debug bool) (*log.Logger, io.Closer, error) {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, settings.AppName+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.WarnLevel
	var writer io.Writer = fileWriter
	if debug {
		level = log.DebugLevel
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}
	logger := log.NewWithOptions(writer, log.Options{
		ReportCaller:    debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          settings.AppName,
	})
	return logger, fileWriter, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
