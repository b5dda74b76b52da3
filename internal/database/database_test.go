package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileStorage(t *testing.T) config.StorageConfig {
	t.Helper()
	return config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "journal.db")},
	}
}

func TestConnect_SQLiteFile(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(fileStorage(t)))
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.IsValid)
	assert.NotNil(t, m.SqlDB)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestConnect_UnsupportedType(t *testing.T) {
	m := NewManager(zerolog.Nop())
	err := m.Connect(config.StorageConfig{Type: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
	assert.False(t, m.IsValid)
}

func TestSetup_MigratesSchema(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(fileStorage(t)))
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Setup("OpenRadar"))

	for _, tbl := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(tbl), "missing table for %T", tbl)
	}

	var info model.AwacsInfo
	require.NoError(t, m.DB.First(&info).Error)
	assert.Equal(t, "OpenRadar", info.ClientName)

	// a second setup keeps the single instance row
	require.NoError(t, m.Setup("OpenRadar"))
	var count int64
	m.DB.Model(&model.AwacsInfo{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSetup_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.Setup("x"))
}

func TestDumpMemoryToDisk(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(fileStorage(t)))
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Setup("OpenRadar"))

	out := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0644))

	require.NoError(t, m.DumpMemoryToDisk(out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(len("stale")))
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	err := DumpMemoryDBToDisk(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path not set")
}

func TestClose_NotConnected(t *testing.T) {
	assert.NoError(t, NewManager(zerolog.Nop()).Close())
}
