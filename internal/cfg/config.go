// Package cfg binds fusta's command-line flags and an optional config
// file to a typed Config struct, following the teacher project's
// pflag-declare-then-viper-bind idiom.
package cfg

type LoggingConfig struct {
	FilePath string    `yaml:"file-path" mapstructure:"file-path"`
	Severity LogSeverity `yaml:"severity" mapstructure:"severity"`
	Format   LogFormat `yaml:"format" mapstructure:"format"`

	MaxFileSizeMB   int  `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool `yaml:"compress" mapstructure:"compress"`
}

type FileSystemConfig struct {
	CacheBacking        CacheBacking `yaml:"cache-backing" mapstructure:"cache-backing"`
	ConcretizeThreshold int64        `yaml:"concretize-threshold-bytes" mapstructure:"concretize-threshold-bytes"`
	NoOverwrite         bool         `yaml:"no-overwrite" mapstructure:"no-overwrite"`
	CSVSeparator        CSVSeparator `yaml:"csv-separator" mapstructure:"csv-separator"`
	ReadOnly            bool         `yaml:"read-only" mapstructure:"read-only"`
}

// Config is fusta's fully resolved configuration, assembled by
// BindFlags and Decode from flags and an optional config file.
type Config struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	FileSystem FileSystemConfig `yaml:"file-system" mapstructure:"file-system"`

	// Source and MountPoint are positional arguments, not flags: the
	// FASTA file to serve and the directory to mount it on.
	Source     string `yaml:"-" mapstructure:"-"`
	MountPoint string `yaml:"-" mapstructure:"-"`
}

// Default mirrors the zero-flag behavior: a file-slice cache, which never
// rewrites the source until forced, logging at INFO to stderr in text
// form.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Severity:        InfoLogSeverity,
			Format:          LogFormatText,
			MaxFileSizeMB:   512,
			BackupFileCount: 10,
		},
		FileSystem: FileSystemConfig{
			CacheBacking:        CacheFile,
			ConcretizeThreshold: 64 * 1024 * 1024,
			CSVSeparator:        ',',
		},
	}
}
