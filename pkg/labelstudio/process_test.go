package labelstudio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thumbtrend/thumbtrend/config"
)

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(&config.Config{})
	assert.Equal(t, "label-studio", r.command)
	assert.Equal(t, "labelstudio.pid", r.pidFile)

	r = NewRunner(&config.Config{LabelStudio: config.LabelStudioConfig{
		Command:      "/opt/labeling/bin/tool",
		PIDFile:      "/tmp/tool.pid",
		DocumentRoot: "/srv/data",
	}})
	assert.Equal(t, "/opt/labeling/bin/tool", r.command)
	assert.Equal(t, "/srv/data", r.documentRoot)
}

func TestStopWithoutPIDFile(t *testing.T) {
	r := &Runner{pidFile: filepath.Join(t.TempDir(), "missing.pid")}
	require.NoError(t, r.Stop())
}

func TestStopCorruptPIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tool.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte("not-a-pid"), 0o644))

	r := &Runner{pidFile: pidFile}
	require.ErrorContains(t, r.Stop(), "corrupt")

	// The corrupt file is removed either way.
	_, err := os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestStartWritesPIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "tool.pid")
	r := &Runner{command: "true", pidFile: pidFile}

	require.NoError(t, r.Start())

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestStartUnknownCommand(t *testing.T) {
	r := &Runner{
		command: filepath.Join(t.TempDir(), "no-such-binary"),
		pidFile: filepath.Join(t.TempDir(), "tool.pid"),
	}
	require.Error(t, r.Start())
}
