package cli

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"secureshred/internal/erase"
)

// CleanupCommand удаляет осиротевшие файлы-носители, оставшиеся после
// аварийно прерванных запусков
type CleanupCommand struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewCleanupCommand creates a new cleanup command
func NewCleanupCommand(fs afero.Fs, logger *zap.Logger) *CleanupCommand {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupCommand{
		fs:     fs,
		logger: logger,
	}
}

// Run sweeps dir for stale carrier files and removes them. With dryRun set
// it only reports what would be removed. Returns the number of carriers
// found.
func (c *CleanupCommand) Run(dir string, dryRun bool) (int, error) {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return 0, errors.Wrapf(err, "read directory %s", dir)
	}

	found := 0
	var failed *strings.Builder

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), erase.CarrierPrefix) {
			continue
		}
		found++
		path := filepath.Join(dir, entry.Name())

		if dryRun {
			c.logger.Info("DRY RUN: носитель будет удалён",
				zap.String("carrier", path), zap.Int64("size", entry.Size()))
			continue
		}

		if err := c.fs.Remove(path); err != nil {
			c.logger.Error("Не удалось удалить носитель", zap.String("carrier", path), zap.Error(err))
			if failed == nil {
				failed = &strings.Builder{}
			} else {
				failed.WriteString(", ")
			}
			failed.WriteString(path)
			continue
		}
		c.logger.Info("Осиротевший носитель удалён",
			zap.String("carrier", path), zap.Int64("size", entry.Size()))
	}

	c.logger.Info("Очистка завершена", zap.String("dir", dir), zap.Int("found", found), zap.Bool("dry_run", dryRun))

	if failed != nil {
		return found, errors.Newf("failed to remove: %s", failed.String())
	}
	return found, nil
}
