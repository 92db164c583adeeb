package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLog_Level(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	require.NoError(t, InitLog("debug", ConsoleLog))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, InitLog("loud", ConsoleLog))
}

func TestInitLog_File(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	logFile := filepath.Join(t.TempDir(), "nsisgen.log")
	require.NoError(t, InitLog("info", logFile))

	log.Info("scan finished")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan finished")
}
