package n64rd

import "go.uber.org/zap"

// nopLogger is used when Config.Logger is nil, so Session code never has
// to guard against a nil *zap.Logger.
func nopLogger() *zap.Logger {
	return zap.NewNop()
}
