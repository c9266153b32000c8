package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Acme Corp", "Acme Corp"},
		{"surrounding whitespace", "  Acme  ", "Acme"},
		{"control characters", "Ac\x00me\x1f\n", "Acme"},
		{"only whitespace", " \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{
		Level:      "info",
		OutputPath: path,
		Format:     "json",
		MaxSizeMB:  1,
	})
	require.NoError(t, err)

	logger.Info("payment recorded")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "payment recorded")
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "verbose", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}

func TestExportPath(t *testing.T) {
	at := time.Date(2026, 1, 10, 15, 4, 5, 0, time.UTC)

	got := ExportPath("user/1", "INV 1001/../x", at, ".pdf")
	assert.Equal(t, filepath.Join("exports", "user1", "INV1001x_20260110T150405Z.pdf"), got)

	got = ExportPath("", "", at, "xlsx")
	assert.Equal(t, filepath.Join("exports", "unknown", "document_20260110T150405Z.xlsx"), got)
}
