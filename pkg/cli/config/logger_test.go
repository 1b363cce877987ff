package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/cli/config"
)

type credential struct {
	Name     string
	Password string `masq:"secret"`
}

func TestLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relmap.log")

	logger, closer, err := config.NewLoggerForTest("info", "json", path).BuildForTest()
	gt.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", "cred", credential{Name: "bot", Password: "hunter2"})
	closer()

	raw, err := os.ReadFile(path)
	gt.NoError(t, err)
	out := string(raw)
	gt.S(t, out).Contains("visible")
	gt.S(t, out).Contains("bot")
	gt.S(t, out).NotContains("hidden")
	gt.S(t, out).NotContains("hunter2")
}

func TestLoggerInvalidConfig(t *testing.T) {
	_, _, err := config.NewLoggerForTest("verbose", "json", "stdout").BuildForTest()
	gt.B(t, errors.Is(err, config.ErrInvalidLogLevel)).True()

	_, _, err = config.NewLoggerForTest("info", "xml", "stdout").BuildForTest()
	gt.B(t, errors.Is(err, config.ErrInvalidLogFmt)).True()
}

func TestLoggerConsole(t *testing.T) {
	logger, closer, err := config.NewLoggerForTest("debug", "console", "stderr").BuildForTest()
	gt.NoError(t, err)
	defer closer()
	gt.Value(t, logger).NotNil()
}
