// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"

	"github.com/featurebasedb/pqingest"
	"github.com/featurebasedb/pqingest/logger"
)

// IngestCommand converts a parquet file into arrow record chunks and
// reports what was produced.
type IngestCommand struct {
	// Filepath or URL to the parquet file.
	Path string

	// ChunkSize is the number of rows per emitted chunk.
	ChunkSize int64

	// MaxStrLen caps the cumulative string bytes per column per row group.
	MaxStrLen int

	stdout  io.Writer
	logDest logger.Logger
}

// NewIngestCommand returns a new instance of IngestCommand.
func NewIngestCommand(logdest logger.Logger) *IngestCommand {
	return &IngestCommand{
		stdout:  os.Stdout,
		logDest: logdest,
	}
}

// Run converts the file and prints a per-chunk summary.
func (cmd *IngestCommand) Run(ctx context.Context) error {
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
	names := make([]string, sch.NumColumns())
	for i := range names {
		names[i] = sch.Column(i).Name()
	}

	w := pqingest.NewArrowWriter(names, types, cmd.ChunkSize, memory.NewGoAllocator())
	defer w.Release()

	ing := pqingest.Ingester{
		Types:     types,
		MaxStrLen: cmd.MaxStrLen,
		Log:       cmd.logDest,
	}
	rows, err := ing.IngestParquet(ctx, rdr, w)
	if err != nil {
		return err
	}
	w.Flush()

	fmt.Fprintf(cmd.stdout, "Name: %v\n", cmd.Path)
	fmt.Fprintf(cmd.stdout, "Rows: %v\n", rows)
	fmt.Fprintf(cmd.stdout, "Schema: %v\n", w.Schema())
	for i, rec := range w.Records() {
		fmt.Fprintf(cmd.stdout, "chunk %d: %d rows x %d cols\n", i, rec.NumRows(), rec.NumCols())
	}
	return nil
}
