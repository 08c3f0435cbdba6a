package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBackingUnmarshalAcceptsKnownValues(t *testing.T) {
	var c CacheBacking
	require.NoError(t, c.UnmarshalText([]byte("MMAP")))
	assert.Equal(t, CacheMMap, c)
}

func TestCacheBackingUnmarshalRejectsUnknownValue(t *testing.T) {
	var c CacheBacking
	assert.Error(t, c.UnmarshalText([]byte("tape")))
}

func TestLogSeverityUnmarshalIsCaseInsensitive(t *testing.T) {
	var l LogSeverity
	require.NoError(t, l.UnmarshalText([]byte("warning")))
	assert.Equal(t, WarningLogSeverity, l)
}

func TestLogSeverityUnmarshalRejectsUnknownValue(t *testing.T) {
	var l LogSeverity
	assert.Error(t, l.UnmarshalText([]byte("CATASTROPHIC")))
}

func TestLogFormatUnmarshalAcceptsJSON(t *testing.T) {
	var f LogFormat
	require.NoError(t, f.UnmarshalText([]byte("JSON")))
	assert.Equal(t, LogFormatJSON, f)
}

func TestCSVSeparatorRequiresExactlyOneCharacter(t *testing.T) {
	var s CSVSeparator
	require.NoError(t, s.UnmarshalText([]byte(";")))
	assert.Equal(t, CSVSeparator(';'), s)

	assert.Error(t, s.UnmarshalText([]byte("too-long")))
}

func TestDefaultConfigIsInternallyConsistent(t *testing.T) {
	c := Default()
	assert.Equal(t, CacheFile, c.FileSystem.CacheBacking)
	assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
	assert.Equal(t, LogFormatText, c.Logging.Format)
}
