// internal/cli/options_test.go
package modelmux

import (
	"testing"
)

func TestParseSamplingOptions(t *testing.T) {
	t.Parallel()

	options, err := parseSamplingOptions(`{"temperature": 0.2, "max_tokens": 512}`)
	if err != nil {
		t.Fatalf("parseSamplingOptions returned error: %v", err)
	}
	if options["temperature"] != 0.2 {
		t.Fatalf("unexpected temperature: %v", options["temperature"])
	}
	if options["max_tokens"] != float64(512) {
		t.Fatalf("unexpected max_tokens: %v", options["max_tokens"])
	}
}

func TestParseSamplingOptionsEmpty(t *testing.T) {
	t.Parallel()

	options, err := parseSamplingOptions("   ")
	if err != nil {
		t.Fatalf("expected no error for blank input, got %v", err)
	}
	if options != nil {
		t.Fatalf("expected nil options, got %v", options)
	}
}

func TestParseSamplingOptionsUnknownKeyAllowed(t *testing.T) {
	t.Parallel()

	options, err := parseSamplingOptions(`{"seed": 42}`)
	if err != nil {
		t.Fatalf("unknown keys should validate, got %v", err)
	}
	if options["seed"] != float64(42) {
		t.Fatalf("unexpected seed: %v", options["seed"])
	}
}

func TestParseSamplingOptionsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "negative temperature", raw: `{"temperature": -1}`},
		{name: "top_p above one", raw: `{"top_p": 1.5}`},
		{name: "fractional max_tokens", raw: `{"max_tokens": 1.5}`},
		{name: "not an object", raw: `[1, 2]`},
		{name: "malformed json", raw: `{"temperature":`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseSamplingOptions(tc.raw); err == nil {
				t.Fatalf("expected error for %s", tc.raw)
			}
		})
	}
}
