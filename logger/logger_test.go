// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/featurebasedb/pqingest/logger"
)

func TestStandardLoggerVerbosity(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewStandardLogger(&buf)
	l.Debugf("quiet")
	l.Infof("loud")
	got := buf.String()
	if strings.Contains(got, "quiet") {
		t.Fatalf("standard logger should drop debug output, got: %q", got)
	}
	if !strings.Contains(got, "INFO:  loud") {
		t.Fatalf("expected info output, got: %q", got)
	}

	buf.Reset()
	v := logger.NewVerboseLogger(&buf)
	v.Debugf("quiet")
	if got := buf.String(); !strings.Contains(got, "DEBUG: quiet") {
		t.Fatalf("verbose logger should keep debug output, got: %q", got)
	}
}

func TestStandardLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewStandardLogger(&buf).WithPrefix("sub: ")
	l.Warnf("careful")
	if got := buf.String(); !strings.Contains(got, "sub: ") || !strings.Contains(got, "WARN:  careful") {
		t.Fatalf("expected prefixed warn output, got: %q", got)
	}
}
