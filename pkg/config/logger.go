package config

import "go.uber.org/zap"

// NewLogger builds the service logger. Local environments get the
// human-readable development encoder, everything else gets JSON.
func NewLogger(app AppConfig) (*zap.Logger, error) {
	if app.Env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
