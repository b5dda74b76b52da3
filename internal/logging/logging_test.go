package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name          string
		logsDir       string
		extensionName string
		want          string
	}{
		{
			name:          "basic path",
			logsDir:       "logs",
			extensionName: "awacs",
			want:          filepath.Join("logs", "awacs.20260212_213836.log"),
		},
		{
			name:          "relative path with dot",
			logsDir:       "./logs",
			extensionName: "awacs",
			want:          filepath.Join(".", "logs", "awacs.20260212_213836.log"),
		},
		{
			name:          "absolute path",
			logsDir:       filepath.Join("/var", "log", "awacs"),
			extensionName: "awacs",
			want:          filepath.Join("/var", "log", "awacs", "awacs.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.extensionName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awacs.log")
	w := NewRotatingFile(path)
	defer w.Close()

	_, err := w.Write([]byte("PICTURE: CLEAN.\n"))
	assert.NoError(t, err)
	assert.Equal(t, path, w.Filename)
	assert.True(t, w.Compress)
}

func TestNewGraylogWriter_BadAddress(t *testing.T) {
	_, err := NewGraylogWriter("no-port")
	assert.Error(t, err)
}
