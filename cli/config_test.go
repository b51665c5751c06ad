package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/frontdesk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdinWith(t *testing.T, content string) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestConfigInitPromptsForPostgresDSN(t *testing.T) {
	t.Setenv("FRONTDESK_DB_DRIVER", "")
	t.Setenv("FRONTDESK_DB_DSN", "")
	t.Setenv("FRONTDESK_STAFF", "")
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	err := ConfigInitCommand(stdinWith(t, "postgres://desk@db.example.com/studio\n"), &out, []string{
		"--path", path, "--driver", "postgres", "--staff", "Alex",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Config saved")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://desk@db.example.com/studio", cfg.DBDSN)
	assert.Equal(t, "Alex", cfg.Staff)
}

func TestConfigInitKeepsSavedValues(t *testing.T) {
	t.Setenv("FRONTDESK_DB_DRIVER", "")
	t.Setenv("FRONTDESK_DB_DSN", "")
	t.Setenv("FRONTDESK_STAFF", "")
	t.Setenv("GROUPME_BOT_ID", "")
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	require.NoError(t, ConfigInitCommand(stdinWith(t, ""), &out, []string{"--path", path, "--staff", "Alex"}))
	require.NoError(t, ConfigInitCommand(stdinWith(t, ""), &out, []string{"--path", path, "--groupme-bot", "bot-1"}))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Alex", cfg.Staff)
	assert.Equal(t, "bot-1", cfg.GroupMeBotID)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestConfigInitRejectsEmptyDSN(t *testing.T) {
	t.Setenv("FRONTDESK_DB_DRIVER", "")
	t.Setenv("FRONTDESK_DB_DSN", "")
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	err := ConfigInitCommand(stdinWith(t, "\n"), &out, []string{"--path", path, "--driver", "postgres"})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
