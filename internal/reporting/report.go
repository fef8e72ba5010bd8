package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"secureshred/internal/config"
	"secureshred/internal/erase"
)

// RunReport представляет JSON отчёт об одном запуске
type RunReport struct {
	RunID     string        `json:"run_id"`
	Version   string        `json:"version"`
	Hostname  string        `json:"hostname"`
	Timestamp time.Time     `json:"timestamp"`
	Mode      string        `json:"mode"`
	Target    string        `json:"target"`
	DryRun    bool          `json:"dry_run"`
	Result    *erase.Report `json:"result,omitempty"`
	Duration  string        `json:"duration"`
	ExitCode  int           `json:"exit_code"`
}

// Generate собирает отчёт из результата затирания
func Generate(result *erase.Report, version string, dryRun bool, exitCode int) *RunReport {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		Version:   version,
		Hostname:  hostname,
		Timestamp: time.Now(),
		DryRun:    dryRun,
		Result:    result,
		ExitCode:  exitCode,
	}

	if result != nil {
		report.Mode = string(result.Mode)
		report.Target = result.Target
		report.Timestamp = result.StartTime
		report.Duration = result.EndTime.Sub(result.StartTime).String()
	}

	return report
}

// Save сохраняет отчёт в JSON файл и возвращает его путь
func Save(report *RunReport, cfg *config.Config) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	// Создаем директорию для отчётов
	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0o755); err != nil {
		return "", errors.Wrap(err, "ошибка создания директории для отчётов")
	}

	filename := fmt.Sprintf("secureshred_report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "ошибка сериализации отчёта")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "ошибка записи отчёта")
	}

	return path, nil
}
