// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/featurebasedb/pqingest/ctl"
	"github.com/featurebasedb/pqingest/logger"
)

func newIngestCommand(logdest logger.Logger) *cobra.Command {
	c := ctl.NewIngestCommand(logdest)
	cmd := &cobra.Command{
		Use:   "ingest PATH|URL",
		Short: "Convert a parquet file into arrow record chunks.",
		Long: `
Converts every row group of the parquet file into arrow record chunks and
prints a summary of what was produced.
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
	flags.Int64Var(&c.ChunkSize, "chunk-size", c.ChunkSize, "Rows per emitted arrow record, 0 for the default.")
	flags.IntVar(&c.MaxStrLen, "max-str-len", c.MaxStrLen, "Cumulative string byte budget per column per row group, 0 for the default.")
	return cmd
}
