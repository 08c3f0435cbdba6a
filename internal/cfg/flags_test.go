package cfg

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsThenDecodeRoundTripsFlagValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))
	require.NoError(t, fs.Parse([]string{
		"--cache-backing=mmap",
		"--no-overwrite",
		"--csv-separator=;",
		"--log-severity=DEBUG",
		"--log-format=json",
	}))

	decoded, err := Decode(viper.GetViper())
	require.NoError(t, err)

	assert.Equal(t, CacheMMap, decoded.FileSystem.CacheBacking)
	assert.True(t, decoded.FileSystem.NoOverwrite)
	assert.Equal(t, CSVSeparator(';'), decoded.FileSystem.CSVSeparator)
	assert.Equal(t, DebugLogSeverity, decoded.Logging.Severity)
	assert.Equal(t, LogFormatJSON, decoded.Logging.Format)
}
