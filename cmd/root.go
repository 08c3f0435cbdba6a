// Package cmd wires fusta's cobra command tree to internal/cfg and
// internal/fusefs, following the teacher project's root/mount command
// split.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/delehef/fusta/internal/cfg"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
)

// RootCmd is fusta's entry point: `fusta [flags] source.fa mount_point`.
var RootCmd = &cobra.Command{
	Use:   "fusta [flags] source.fa mount_point",
	Short: "Expose the sequences of a FASTA file as a writable FUSE filesystem",
	Long: `fusta mounts a multi-FASTA file as a directory tree: one view per
sequence under fasta/ and seqs/, an append/ directory to add new
sequences, and a get/ directory for ID:START-END subfragment lookups.`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}

		mountCfg, err := cfg.Decode(viper.GetViper())
		if err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}
		mountCfg.Source = args[0]
		mountCfg.MountPoint = args[1]

		if err := cfg.Validate(mountCfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		return runMount(mountCfg)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML configuration file.")

	bindErr = cfg.BindFlags(RootCmd.Flags())

	cobra.OnInitialize(func() {
		if cfgFile == "" {
			return
		}
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			configFileErr = fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	})
}

// Execute runs the command tree; main.go's sole responsibility is
// calling this and translating its error into an exit code.
func Execute() error {
	return RootCmd.Execute()
}
