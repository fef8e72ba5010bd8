package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config конфигурация приложения
type Config struct {
	Erase struct {
		Passes             int     `yaml:"passes"`
		ChunkSize          int     `yaml:"chunk_size"`
		RenameBeforeDelete bool    `yaml:"rename_before_delete"`
		MaxSpeedMBps       float64 `yaml:"max_speed_mbps"`
		MaxDuration        string  `yaml:"max_duration"`
		SyncInterval       int64   `yaml:"sync_interval"`
	} `yaml:"erase"`

	Security struct {
		RequireConfirmation bool     `yaml:"require_confirmation"`
		ProtectedPaths      []string `yaml:"protected_paths"`
	} `yaml:"security"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled   bool   `yaml:"enabled"`
		LocalPath string `yaml:"local_path"`
	} `yaml:"reporting"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}

	cfg.Erase.Passes = 3
	cfg.Erase.ChunkSize = 4 * 1024 * 1024 // 4MB
	cfg.Erase.RenameBeforeDelete = true
	cfg.Erase.MaxSpeedMBps = 0 // без ограничения
	cfg.Erase.MaxDuration = ""
	cfg.Erase.SyncInterval = 512 * 1024 * 1024 // 512MB

	cfg.Security.RequireConfirmation = true
	cfg.Security.ProtectedPaths = []string{
		"/boot",
		"/etc",
		"/usr",
		"/bin",
		"/sbin",
		"/lib",
		"/proc",
		"/sys",
	}

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""

	cfg.Reporting.Enabled = true
	cfg.Reporting.LocalPath = "./reports"

	return cfg
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	// Валидация конфигурации
	if err := Validate(&config); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	if config.Erase.Passes < 1 || config.Erase.Passes > 35 {
		return errors.Newf("passes must be between 1 and 35, got %d", config.Erase.Passes)
	}

	if config.Erase.ChunkSize < 4*1024 {
		return errors.Newf("chunk size must be at least 4KB, got %d", config.Erase.ChunkSize)
	}
	if config.Erase.ChunkSize > 256*1024*1024 { // 256MB max
		return errors.Newf("chunk size too large (max 256MB), got %d", config.Erase.ChunkSize)
	}

	if config.Erase.MaxSpeedMBps < 0 {
		return errors.Newf("max speed cannot be negative, got %f", config.Erase.MaxSpeedMBps)
	}
	if config.Erase.MaxSpeedMBps > 10000 { // 10GB/s max
		return errors.Newf("max speed too high (max 10000MB/s), got %f", config.Erase.MaxSpeedMBps)
	}

	if config.Erase.MaxDuration != "" {
		if _, err := time.ParseDuration(config.Erase.MaxDuration); err != nil {
			return errors.Newf("invalid max duration format: %s", config.Erase.MaxDuration)
		}
	}

	if config.Erase.SyncInterval < 0 {
		return errors.Newf("sync interval cannot be negative, got %d", config.Erase.SyncInterval)
	}

	// Валидация logging секции
	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[config.Logging.Level] {
		return errors.Newf("invalid log level: %s", config.Logging.Level)
	}

	// Валидация путей
	for _, path := range config.Security.ProtectedPaths {
		if path == "" {
			return errors.New("empty protected path")
		}

		cleaned := filepath.Clean(path)
		if cleaned == "" || cleaned == "." {
			return errors.Newf("invalid protected path: %s", path)
		}
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	// Валидация перед сохранением
	if err := Validate(config); err != nil {
		return errors.Wrap(err, "cannot save invalid config")
	}

	// Создаем директорию если нужно
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// GetMaxDuration возвращает максимальную длительность запуска
func (config *Config) GetMaxDuration() time.Duration {
	if config.Erase.MaxDuration == "" {
		return 0 // Без лимита
	}

	duration, err := time.ParseDuration(config.Erase.MaxDuration)
	if err != nil {
		return 2 * time.Hour // Fallback
	}

	return duration
}
