// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestDuration_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Duration
		want  bool
	}{
		{"10s", true},
		{"1m30s", true},
		{"250ms", true},
		{"", false},
		{"0s", false},
		{"-5s", false},
		{"ten", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Errorf("Duration(%q).IsValid() = %v, want %v", tt.value, valid, tt.want)
			}
			if !valid {
				if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidDuration) {
					t.Errorf("expected ErrInvalidDuration, got %v", errs)
				}
			}
		})
	}

	if got := Duration("1m30s").Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %s, want 1m30s", got)
	}
	if got := Duration("bogus").Duration(); got != 0 {
		t.Errorf("invalid Duration() = %s, want 0", got)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if valid, _ := level.IsValid(); !valid {
			t.Errorf("LogLevel(%q) should be valid", level)
		}
	}

	valid, errs := LogLevel("trace").IsValid()
	if valid {
		t.Fatal("LogLevel(trace) should be invalid")
	}
	var lvlErr *InvalidLogLevelError
	if !errors.As(errs[0], &lvlErr) || lvlErr.Value != "trace" {
		t.Errorf("expected *InvalidLogLevelError for trace, got %v", errs[0])
	}
}

func TestExecutablePath_IsValid(t *testing.T) {
	t.Parallel()

	if valid, _ := ExecutablePath("/usr/bin/latex").IsValid(); !valid {
		t.Error("absolute path should be valid")
	}
	if valid, _ := ExecutablePath("lualatex").IsValid(); !valid {
		t.Error("bare name should be valid")
	}
	valid, errs := ExecutablePath("  \t").IsValid()
	if valid || !errors.Is(errs[0], ErrInvalidExecutablePath) {
		t.Errorf("whitespace path should be invalid, got %v %v", valid, errs)
	}
}

func TestConfig_IsValid_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Kpsewhich = ""
	cfg.Engines.Xelatex = " "
	cfg.Index.ReadConcurrency = 0
	cfg.LogLevel = "loud"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("config should be invalid")
	}
	if len(errs) != 1 {
		t.Fatalf("expected a single wrapped error, got %d", len(errs))
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	for _, sentinel := range []error{ErrInvalidConfig, ErrInvalidExecutablePath, ErrInvalidReadConcurrency, ErrInvalidLogLevel} {
		if !errors.Is(errs[0], sentinel) {
			t.Errorf("error should wrap %v", sentinel)
		}
	}
}
