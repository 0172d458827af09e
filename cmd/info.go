// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/featurebasedb/pqingest/ctl"
	"github.com/featurebasedb/pqingest/logger"
)

func newInfoCommand(logdest logger.Logger) *cobra.Command {
	c := ctl.NewInfoCommand(logdest)
	cmd := &cobra.Command{
		Use:   "info PATH|URL",
		Short: "Display schema and sample data from a parquet file.",
		Long: `
Displays the parquet schema, the target column types the file would ingest
as, and a few converted sample rows.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("parquet file path required")
			} else if len(args) > 1 {
				return fmt.Errorf("too many command line arguments")
			}
			c.Path = args[0]
			return nil
		},
		RunE: usageErrorWrapper(c),
	}

	flags := cmd.Flags()
	flags.IntVar(&c.SampleRows, "sample-rows", c.SampleRows, "Maximum number of sample rows to print.")
	return cmd
}
