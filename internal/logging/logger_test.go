package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleOnly(t *testing.T) {
	log := New("INFO", "", false)
	require.NotNil(t, log)
	log.Info("привет")
	require.NotNil(t, New("DEBUG", "", false))
	require.NotNil(t, New("bogus", "", false)) // неизвестный уровень = INFO
}

func TestNewFileSinkWritesJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "secureshred.log")

	log := New("INFO", file, false)
	log.Info("тестовое сообщение")
	_ = log.Sync() // sync stdout может вернуть EINVAL, файл уже записан

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "тестовое сообщение", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewUnwritableFileFallsBack(t *testing.T) {
	// /dev/null/x никогда не откроется как файл
	log := New("INFO", "/dev/null/x/secureshred.log", false)
	require.NotNil(t, log)
	log.Info("fallback works")
}

func TestVerboseOverridesLevel(t *testing.T) {
	file := filepath.Join(t.TempDir(), "v.log")
	log := New("ERROR", file, true)
	log.Debug("debug visible in verbose mode")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug visible in verbose mode")
}
