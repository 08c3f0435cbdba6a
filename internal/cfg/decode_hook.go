package cfg

import (
	"github.com/mitchellh/mapstructure"
)

// decodeHook lets viper's Unmarshal call UnmarshalText on fusta's
// custom flag types (CacheBacking, LogSeverity, LogFormat,
// CSVSeparator), following the teacher project's DecodeHook.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.TextUnmarshallerHookFunc(),
	mapstructure.StringToTimeDurationHookFunc(),
)
