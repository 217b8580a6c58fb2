package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		level       string
		development bool
		enabled     zapcore.Level
		disabled    []zapcore.Level
	}{
		{"debug", true, zapcore.DebugLevel, nil},
		{"info", false, zapcore.InfoLevel, []zapcore.Level{zapcore.DebugLevel}},
		{"warn", false, zapcore.WarnLevel, []zapcore.Level{zapcore.InfoLevel}},
		{"error", true, zapcore.ErrorLevel, []zapcore.Level{zapcore.WarnLevel}},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			l, err := New(tc.level, tc.development)
			if err != nil {
				t.Fatalf("New(%q) error = %v", tc.level, err)
			}
			if !l.Core().Enabled(tc.enabled) {
				t.Errorf("level %v should be enabled", tc.enabled)
			}
			for _, d := range tc.disabled {
				if l.Core().Enabled(d) {
					t.Errorf("level %v should be disabled", d)
				}
			}
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("verbose", false); err == nil {
		t.Error("New(verbose) should fail")
	}
}
