// Package logging builds the process-wide logrus logger the CLI and
// engine share, configured from the profile's log_level/log_format keys.
package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
)

// New builds a *logrus.Logger from profile's log_level/log_format keys.
func New(p *config.Profile) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(p.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	if p.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger, nil
}
