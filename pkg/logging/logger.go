package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the root logger for the given environment.
// "local" gets a human-readable development config; everything else
// gets production JSON output.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
