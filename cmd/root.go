// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/featurebasedb/pqingest/logger"
)

// rootLogger delegates to a destination chosen after flag parsing, so the
// subcommands can capture it at construction time.
type rootLogger struct {
	logger.Logger
}

func NewRootCommand(stderr io.Writer) *cobra.Command {
	logdest := &rootLogger{Logger: logger.NewStandardLogger(stderr)}
	var logPath string
	rc := &cobra.Command{
		Use:   "pqingest",
		Short: "pqingest converts parquet files into row-major typed column output.",
		Long: `pqingest converts parquet files into row-major typed column output
suitable for a tabular ingestion engine. Every record becomes exactly one
row with every column set, absent fields included.
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := setAllConfig(v, cmd.Flags()); err != nil {
				return err
			}
			if logPath == "" {
				return nil
			}
			fw, err := logger.NewFileWriter(logPath)
			if err != nil {
				return fmt.Errorf("opening log file '%s': %v", logPath, err)
			}
			logdest.Logger = logger.NewStandardLogger(fw)
			sighup := make(chan os.Signal, 1)
			signal.Notify(sighup, syscall.SIGHUP)
			go func() {
				for range sighup {
					if err := fw.Reopen(); err != nil {
						logdest.Warnf("reopening log file: %v", err)
					}
				}
			}()
			return nil
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().StringVar(&logPath, "log-path", "", "Log to this file instead of stderr. Reopened on SIGHUP.")

	rc.AddCommand(newInfoCommand(logdest))
	rc.AddCommand(newIngestCommand(logdest))

	rc.SetOut(stderr)
	return rc
}

// setAllConfig applies configuration to the given FlagSet in priority
// order: command line, then environment (PQINGEST_ prefixed, dashes as
// underscores), then a toml config file if one was named.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix("PQINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		if f.Changed {
			// flags set on the command line win
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		flagErr = flags.Set(f.Name, v.GetString(f.Name))
	})
	return flagErr
}

type commandRunner interface {
	Run(ctx context.Context) error
}

// usageErrorWrapper runs the wrapped command and silences cobra's usage
// output for errors that aren't usage errors.
func usageErrorWrapper(c commandRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return c.Run(cmd.Context())
	}
}
