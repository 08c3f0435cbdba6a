package cfg

import (
	"fmt"
	"strings"
)

// CacheBacking selects the storage backing fusta uses for a freshly
// loaded fragment: kept in memory, backed by file offsets, or mmap'd.
type CacheBacking string

const (
	CacheMemory CacheBacking = "memory"
	CacheFile   CacheBacking = "file"
	CacheMMap   CacheBacking = "mmap"
)

func (c *CacheBacking) UnmarshalText(text []byte) error {
	v := CacheBacking(strings.ToLower(string(text)))
	switch v {
	case CacheMemory, CacheFile, CacheMMap:
		*c = v
		return nil
	default:
		return fmt.Errorf("invalid cache backing %q: must be one of memory, file, mmap", text)
	}
}

// LogSeverity is the logging severity floor, mirroring
// internal/logger's level ladder.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
	OffLogSeverity:     5,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	v := LogSeverity(strings.ToUpper(string(text)))
	if _, ok := severityRanking[v]; !ok {
		return fmt.Errorf("invalid log severity %q: must be one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF", text)
	}
	*l = v
	return nil
}

// LogFormat selects the render format for log lines.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

func (f *LogFormat) UnmarshalText(text []byte) error {
	v := LogFormat(strings.ToLower(string(text)))
	if v != LogFormatText && v != LogFormatJSON {
		return fmt.Errorf("invalid log format %q: must be text or json", text)
	}
	*f = v
	return nil
}

// CSVSeparator is a single character accepted as the field separator for
// infos.csv, parsed from a one-character flag value.
type CSVSeparator rune

func (s *CSVSeparator) UnmarshalText(text []byte) error {
	r := []rune(string(text))
	if len(r) != 1 {
		return fmt.Errorf("invalid csv separator %q: must be exactly one character", text)
	}
	*s = CSVSeparator(r[0])
	return nil
}
