// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

/*
This is the entrypoint for the pqingest binary.
*/
package main

import (
	"fmt"
	"os"

	"github.com/featurebasedb/pqingest/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
