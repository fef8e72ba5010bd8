package security

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"secureshred/internal/config"
)

// Checks выполняет проверки безопасности перед запуском затирания
func Checks(cfg *config.Config, target string) error {
	if cfg == nil {
		cfg = config.Default()
	}

	if IsProtectedPath(cfg, target) {
		return errors.Newf("target %s is inside a protected path; refusing to erase", target)
	}

	return nil
}

// IsProtectedPath reports whether path lies inside one of the configured
// protected paths. Comparison is by path components, so /etcetera does not
// match /etc.
func IsProtectedPath(cfg *config.Config, path string) bool {
	if cfg == nil {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		// Непроверяемый путь считаем защищённым
		return true
	}
	abs = filepath.Clean(abs)

	for _, protected := range cfg.Security.ProtectedPaths {
		p := filepath.Clean(protected)
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
