package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	f := &loggerFactory{format: format, level: &slog.LevelVar{}}
	f.level.Set(LevelTrace)
	return slog.New(f.createJsonOrTextHandler(&buf, f.level)), &buf
}

func TestTextHandlerRendersCustomSeverity(t *testing.T) {
	l, buf := newTestLogger(t, "text")
	l.Log(nil, LevelTrace, "hello")

	line := buf.String()
	assert.Contains(t, line, `severity=TRACE`)
	assert.Contains(t, line, `msg=hello`)
}

func TestJSONHandlerRendersCustomSeverity(t *testing.T) {
	l, buf := newTestLogger(t, "json")
	l.Log(nil, LevelWarn, "uh oh")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "WARNING", decoded["severity"])
	assert.Equal(t, "uh oh", decoded["msg"])
}

func TestSetLoggingLevelRecognizesAllSeverities(t *testing.T) {
	var lv slog.LevelVar
	for name, want := range map[string]slog.Level{
		"TRACE":   LevelTrace,
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARNING": LevelWarn,
		"ERROR":   LevelError,
		"OFF":     LevelOff,
	} {
		setLoggingLevel(name, &lv)
		assert.Equal(t, want, lv.Level(), "severity %s", name)
	}
}

func TestSetLoggingLevelDefaultsToInfoOnUnknownValue(t *testing.T) {
	var lv slog.LevelVar
	lv.Set(LevelError)
	setLoggingLevel("NONSENSE", &lv)
	assert.Equal(t, LevelInfo, lv.Level())
}

func TestInitLogFileWithoutPathWritesToStderrFormat(t *testing.T) {
	require.NoError(t, InitLogFile(Config{Severity: "DEBUG", Format: "json"}))
	assert.Equal(t, "json", defaultLoggerFactory.format)
	assert.True(t, defaultLogger.Enabled(nil, LevelDebug))
	assert.False(t, defaultLogger.Enabled(nil, LevelTrace))
}

func TestLevelNamesCoverAllExportedLevels(t *testing.T) {
	for _, lvl := range []slog.Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelOff} {
		name, ok := levelNames[lvl]
		require.True(t, ok, "missing name for level %v", lvl)
		assert.True(t, strings.ToUpper(name) == name)
	}
}
