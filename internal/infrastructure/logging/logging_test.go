package logging

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
)

func TestNewAppliesLogLevel(t *testing.T) {
	p := &config.Profile{LogLevel: "debug", LogFormat: "json"}
	logger, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("logger level = %v, want DebugLevel", logger.GetLevel())
	}
}

func TestNewTextFormatUsesTextFormatter(t *testing.T) {
	p := &config.Profile{LogLevel: "info", LogFormat: "text"}
	logger, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("logger.Formatter = %T, want *logrus.TextFormatter", logger.Formatter)
	}
}

func TestNewDefaultFormatIsNotText(t *testing.T) {
	p := &config.Profile{LogLevel: "warn", LogFormat: "json"}
	logger, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); ok {
		t.Errorf("expected a non-text formatter for log_format=json")
	}
}

func TestNewRejectsInvalidLogLevel(t *testing.T) {
	p := &config.Profile{LogLevel: "not-a-level"}
	if _, err := New(p); err == nil {
		t.Fatalf("expected an error for an invalid log level")
	}
}
