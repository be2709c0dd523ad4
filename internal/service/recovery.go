package service

import (
	"math"
	"runtime/debug"

	"go.uber.org/zap"
)

// RecoverAndLog recovers from panic and logs it with context
func RecoverAndLog(logger *zap.Logger, context string) {
	if r := recover(); r != nil {
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Error("❌ panic recovered",
			zap.String("context", context),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}

// ValidateFloat64 checks if a float64 is valid (not NaN or Inf)
func ValidateFloat64(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ValidatePrice checks if a price value is valid for trading
func ValidatePrice(price float64) bool {
	return ValidateFloat64(price) && price > 0 && price < 1e10
}
