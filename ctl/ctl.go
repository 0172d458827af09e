// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ctl contains the command implementations behind the pqingest
// binary.
package ctl

import (
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

// openFileOrURL opens a local parquet file, or downloads a URL to a temp
// file first since the reader needs random access. The returned cleanup
// must be called when done.
func openFileOrURL(path string) (*os.File, func(), error) {
	if _, err := url.ParseRequestURI(path); err != nil || !isHTTP(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening file")
		}
		return f, func() { f.Close() }, nil
	}

	resp, err := http.Get(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting via http")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, errors.Errorf("unexpected response %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "pqingest-*.parquet")
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating tempfile")
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		cleanup()
		return nil, nil, errors.Wrapf(err, "downloading %s", path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, errors.Wrap(err, "resetting file for reading")
	}
	return f, cleanup, nil
}

func isHTTP(path string) bool {
	u, err := url.Parse(path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
