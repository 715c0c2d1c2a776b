package utils

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// RunLogName is the JSON run log kept inside every results directory.
const RunLogName = "pipeline.log"

// NewRunLogger returns a logger that fans out to a text handler on stderr for
// the operator and a JSON handler appended to <outputDir>/pipeline.log. The
// returned file belongs to the caller and stays open for the whole run.
func NewRunLogger(outputDir string) (*slog.Logger, *os.File, error) {
	logFilePath := filepath.Join(outputDir, RunLogName)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFilePath, err)
	}

	logger := slog.New(slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}),
	))
	return logger, logFile, nil
}
