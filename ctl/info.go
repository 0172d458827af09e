// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v10/parquet/file"

	"github.com/featurebasedb/pqingest"
	"github.com/featurebasedb/pqingest/logger"
)

// InfoCommand displays the schema of a parquet file, the target column
// types it would ingest as, and a few sample rows run through the
// converter.
type InfoCommand struct {
	// Filepath or URL to the parquet file.
	Path string

	// SampleRows is the maximum number of rows to print.
	SampleRows int

	stdout  io.Writer
	logDest logger.Logger
}

// NewInfoCommand returns a new instance of InfoCommand.
func NewInfoCommand(logdest logger.Logger) *InfoCommand {
	return &InfoCommand{
		SampleRows: 10,
		stdout:     os.Stdout,
		logDest:    logdest,
	}
}

// Run displays schema and sample data from the parquet file.
func (cmd *InfoCommand) Run(ctx context.Context) error {
	f, cleanup, err := openFileOrURL(cmd.Path)
	if err != nil {
		return err
	}
	defer cleanup()

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		return err
	}
	defer rdr.Close()

	sch := rdr.MetaData().Schema
	types := pqingest.TypesFromSchema(sch)

	fmt.Fprintf(cmd.stdout, "\nName: %v\n", cmd.Path)
	fmt.Fprintf(cmd.stdout, "Rows: %v\n", rdr.NumRows())
	fmt.Fprintf(cmd.stdout, "Row groups: %v\n\n", rdr.NumRowGroups())
	for i := 0; i < sch.NumColumns(); i++ {
		col := sch.Column(i)
		fmt.Fprintf(cmd.stdout, "%v. Name: %v\n", i, col.Name())
		fmt.Fprintf(cmd.stdout, "%v. Physical: %v\n", i, col.PhysicalType())
		fmt.Fprintf(cmd.stdout, "%v. Target: %v\n\n", i, types[i])
	}

	buf := pqingest.NewRowBuffer(sch.NumColumns())
	ing := pqingest.Ingester{Types: types, Log: cmd.logDest}
	if _, err := ing.IngestParquet(ctx, rdr, buf); err != nil {
		return err
	}

	rows := buf.Rows()
	n := cmd.SampleRows
	if len(rows) < n {
		n = len(rows)
	}
	fmt.Fprintln(cmd.stdout, "Sample:")
	for i := 0; i < sch.NumColumns(); i++ {
		fmt.Fprintf(cmd.stdout, "%v\t", sch.Column(i).Name())
	}
	fmt.Fprintln(cmd.stdout, "")
	for _, row := range rows[:n] {
		for _, cell := range row {
			if cell == nil {
				fmt.Fprintf(cmd.stdout, "<nil>\t")
				continue
			}
			fmt.Fprintf(cmd.stdout, "%v\t", cell)
		}
		fmt.Fprintln(cmd.stdout, "")
	}
	return nil
}
