package cmd

import (
	"context"
	"fmt"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/timeutil"

	"github.com/delehef/fusta/internal/cfg"
	"github.com/delehef/fusta/internal/fusefs"
	"github.com/delehef/fusta/internal/logger"
	"github.com/delehef/fusta/internal/model"
)

// runMount loads the source FASTA file, mounts the resulting model at
// mountCfg.MountPoint, and blocks until the kernel connection is torn
// down (unmount or fatal error), mirroring the teacher project's
// mount-then-Join shape.
func runMount(mountCfg cfg.Config) error {
	if err := logger.InitLogFile(logger.Config{
		FilePath: mountCfg.Logging.FilePath,
		Severity: string(mountCfg.Logging.Severity),
		Format:   string(mountCfg.Logging.Format),
		Rotate: logger.LogRotateConfig{
			MaxFileSizeMB:   mountCfg.Logging.MaxFileSizeMB,
			BackupFileCount: mountCfg.Logging.BackupFileCount,
			Compress:        mountCfg.Logging.Compress,
		},
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	clock := timeutil.RealClock()
	m := model.New(mountCfg.Source, model.Options{
		Cache:               model.CachePolicy(mountCfg.FileSystem.CacheBacking),
		ConcretizeThreshold: mountCfg.FileSystem.ConcretizeThreshold,
		CSVSeparator:        rune(mountCfg.FileSystem.CSVSeparator),
		NoOverwrite:         mountCfg.FileSystem.NoOverwrite,
	}, clock)

	if err := m.Load(); err != nil {
		return fmt.Errorf("loading %s: %w", mountCfg.Source, err)
	}
	logger.Infof("loaded %d sequences from %s", len(m.Fragments()), mountCfg.Source)

	fs := fusefs.New(m, clock, logger.Logger(), mountCfg.FileSystem.ReadOnly)

	mfs, err := fuse.Mount(mountCfg.MountPoint, fs, &fuse.MountConfig{})
	if err != nil {
		return fmt.Errorf("mounting at %s: %w", mountCfg.MountPoint, err)
	}

	if err := mfs.Join(context.Background()); err != nil {
		return fmt.Errorf("serving %s: %w", mountCfg.MountPoint, err)
	}
	return nil
}
