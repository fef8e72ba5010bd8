package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secureshred/internal/config"
	"secureshred/internal/erase"
)

func sampleResult() *erase.Report {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &erase.Report{
		Mode:         erase.ModeFile,
		Target:       "/data/secret.bin",
		Outcome:      erase.OutcomeSuccess,
		Message:      "target fully sanitized and removed",
		BytesWritten: 120_000,
		Passes: []erase.PassReport{{
			Pass: 1,
			Patterns: []erase.PatternReport{
				{Pattern: "zero", Status: erase.StatusCompleted, BytesWritten: 30_000},
				{Pattern: "one", Status: erase.StatusCompleted, BytesWritten: 30_000},
				{Pattern: "random", Status: erase.StatusCompleted, BytesWritten: 30_000},
				{Pattern: "encrypted", Status: erase.StatusCompleted, BytesWritten: 30_000},
			},
		}},
		StartTime: start,
		EndTime:   start.Add(42 * time.Second),
	}
}

func TestGenerate(t *testing.T) {
	report := Generate(sampleResult(), "1.0.2", false, 0)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "1.0.2", report.Version)
	assert.NotEmpty(t, report.Hostname)
	assert.Equal(t, "file", report.Mode)
	assert.Equal(t, "/data/secret.bin", report.Target)
	assert.Equal(t, "42s", report.Duration)
	assert.Equal(t, 0, report.ExitCode)
	assert.False(t, report.DryRun)

	other := Generate(sampleResult(), "1.0.2", false, 0)
	assert.NotEqual(t, report.RunID, other.RunID)
}

func TestGenerateNilResult(t *testing.T) {
	report := Generate(nil, "1.0.2", true, 2)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.ExitCode)
	assert.Nil(t, report.Result)
	assert.Empty(t, report.Mode)
}

func TestSaveWritesJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Reporting.LocalPath = filepath.Join(t.TempDir(), "reports")

	report := Generate(sampleResult(), "1.0.2", false, 0)
	path, err := Save(report, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, cfg.Reporting.LocalPath, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, "SUCCESS", string(decoded.Result.Outcome))
	require.Len(t, decoded.Result.Passes, 1)
	assert.Len(t, decoded.Result.Passes[0].Patterns, 4)
}

func TestSaveDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Reporting.Enabled = false

	path, err := Save(Generate(sampleResult(), "1.0.2", false, 0), cfg)
	require.NoError(t, err)
	assert.Empty(t, path)
}
