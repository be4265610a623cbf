// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Level, "info")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Caller {
		t.Error("Caller = true, want false")
	}
	if !cfg.Timestamp {
		t.Error("Timestamp = false, want true")
	}
	if cfg.Service != "marquee" {
		t.Errorf("Service = %q, want %q", cfg.Service, "marquee")
	}
}

// Init mutates process-wide state, so this test is not parallel.
func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Service: "marquee-test", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("table", "collab").Msg("table loaded")
	Debug().Msg("debug line")

	output := buf.String()
	if !strings.Contains(output, "table loaded") {
		t.Errorf("output missing message: %s", output)
	}
	if !strings.Contains(output, `"table":"collab"`) {
		t.Errorf("output missing field: %s", output)
	}
	if !strings.Contains(output, "debug line") {
		t.Errorf("debug level not enabled: %s", output)
	}
	if !strings.Contains(output, `"service":"marquee-test"`) {
		t.Errorf("output missing service field: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := WithComponent("loader")
	logger.Info().Msg("loaded")

	if !strings.Contains(buf.String(), `"component":"loader"`) {
		t.Errorf("output = %s, want component field", buf.String())
	}
	if strings.Contains(buf.String(), `"service"`) {
		t.Errorf("output = %s, want no service field", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{" Warn ", zerolog.WarnLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Warn().Str("source", "neural").Msg("source skipped")

	if !strings.Contains(buf.String(), `"source":"neural"`) {
		t.Errorf("output = %s, want source field", buf.String())
	}
}
