package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReportsVolume(t *testing.T) {
	dir := t.TempDir()

	info, err := Probe(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, info.Path)
	assert.NotEmpty(t, info.FSType)
	assert.Positive(t, info.TotalBytes)
	assert.GreaterOrEqual(t, info.TotalBytes, info.FreeBytes)
}

func TestProbeMissingPath(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestValidatePath(t *testing.T) {
	_, err := ValidatePath("")
	require.Error(t, err)

	_, err = ValidatePath(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	dir := t.TempDir()
	abs, err := ValidatePath(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, dir, abs)
}

func TestValidatePathExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECURESHRED_TEST_DIR", dir)

	abs, err := ValidatePath("$SECURESHRED_TEST_DIR")
	require.NoError(t, err)
	assert.Equal(t, dir, abs)
}

func TestCheckWriteAccess(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, CheckWriteAccess(dir))

	// Пробный файл не должен оставаться
	_, err := os.Stat(filepath.Join(dir, ".secureshred_write_test"))
	assert.True(t, os.IsNotExist(err))

	assert.False(t, CheckWriteAccess(filepath.Join(dir, "missing")))
}
