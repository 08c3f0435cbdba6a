package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags declares fusta's flags on flagSet and binds each one to its
// dotted viper key, following the teacher project's generated
// cfg.BindFlags shape, hand-written here since fusta's flag surface is
// small enough not to warrant a generator.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("cache-backing", "c", string(CacheFile), "Storage backing for loaded sequences: memory, file, or mmap.")
	if err = viper.BindPFlag("file-system.cache-backing", flagSet.Lookup("cache-backing")); err != nil {
		return err
	}

	flagSet.Int64P("concretize-threshold-bytes", "", 64*1024*1024, "In-memory footprint above which a concretize rewrite runs opportunistically.")
	if err = viper.BindPFlag("file-system.concretize-threshold-bytes", flagSet.Lookup("concretize-threshold-bytes")); err != nil {
		return err
	}

	flagSet.BoolP("no-overwrite", "", false, "Reject mutations that would overwrite an existing sequence id.")
	if err = viper.BindPFlag("file-system.no-overwrite", flagSet.Lookup("no-overwrite")); err != nil {
		return err
	}

	flagSet.StringP("csv-separator", "", ",", "Field separator used in infos.csv.")
	if err = viper.BindPFlag("file-system.csv-separator", flagSet.Lookup("csv-separator")); err != nil {
		return err
	}

	flagSet.BoolP("read-only", "", false, "Mount the filesystem read-only, refusing every mutating operation.")
	if err = viper.BindPFlag("file-system.read-only", flagSet.Lookup("read-only")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file; empty logs to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", string(InfoLogSeverity), "Logging severity floor: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", string(LogFormatText), "Log line format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.IntP("log-max-size-mb", "", 512, "Log file size, in megabytes, that triggers rotation.")
	if err = viper.BindPFlag("logging.max-file-size-mb", flagSet.Lookup("log-max-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-backup-count", "", 10, "Number of rotated log files to retain.")
	if err = viper.BindPFlag("logging.backup-file-count", flagSet.Lookup("log-backup-count")); err != nil {
		return err
	}

	flagSet.BoolP("log-compress", "", false, "Gzip rotated log files.")
	if err = viper.BindPFlag("logging.compress", flagSet.Lookup("log-compress")); err != nil {
		return err
	}

	return nil
}

// Decode unmarshals v (typically the global viper instance, already
// populated by BindFlags and an optional config file) into a Config.
func Decode(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
