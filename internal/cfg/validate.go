package cfg

import "fmt"

// Validate rejects combinations of fields that parsed individually but
// make no sense together, following the teacher project's isValid*
// helpers in cfg/validate.go.
func Validate(c Config) error {
	if err := validateLogRotateConfig(c.Logging); err != nil {
		return err
	}
	if c.FileSystem.ConcretizeThreshold < 0 {
		return fmt.Errorf("concretize-threshold-bytes can't be negative")
	}
	return nil
}

func validateLogRotateConfig(l LoggingConfig) error {
	if l.FilePath == "" {
		return nil
	}
	if l.MaxFileSizeMB <= 0 {
		return fmt.Errorf("log-max-size-mb should be at least 1")
	}
	if l.BackupFileCount < 0 {
		return fmt.Errorf("log-backup-count should be 0 (retain all) or positive")
	}
	return nil
}
