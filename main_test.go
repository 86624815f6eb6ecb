package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mailnorm/internal/config"
	"github.com/felo/mailnorm/internal/parser"
)

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.json"),
		[]byte(`{"from":"ralph@example.com","text":"Yes.\n\n-----Original Message-----\nFrom: x"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.json"),
		[]byte(`{"from":"bob@example.com","html":"<p>Hi</p>"}`), 0644))

	cfg := config.Default()
	cfg.Workers = 2

	var out bytes.Buffer
	err := runBatch(parser.New(cfg.ReplyConfig()), cfg, dir, &out, zerolog.Nop())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "one.json", first["path"])
	assert.Equal(t, "Yes.", first["email"].(map[string]any)["body"])
}

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, newLogger(config.LogConfig{Level: "debug"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger(config.LogConfig{Level: "nonsense"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger(config.LogConfig{}).GetLevel())
}
