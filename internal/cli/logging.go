package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/logger"
)

const logFileName = "chimera.log"

// setupLogging tees the shared logger to stdout and a rotated file under the
// configured log directory. The returned closer flushes the rotator.
func setupLogging(cfg config.Config, stdout io.Writer) (io.Closer, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, logFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	logger.Init(cfg.Debug, io.MultiWriter(stdout, rotator))
	return rotator, nil
}
