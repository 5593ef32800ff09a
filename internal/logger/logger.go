package logger

import (
	"go.uber.org/zap"
)

// New creates a zap logger for the given environment and tags every entry
// with the component name ("server", "worker", ...).
func New(env, component string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	switch env {
	case "test":
		return zap.NewNop()
	case "development":
		l, err = zap.NewDevelopment()
	default:
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l.With(zap.String("component", component))
}
