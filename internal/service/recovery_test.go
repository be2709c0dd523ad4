package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoverAndLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	assert.NotPanics(t, func() {
		defer RecoverAndLog(logger, "main")
		panic("kaboom")
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "main", entry.ContextMap()["context"])
	assert.Equal(t, "kaboom", entry.ContextMap()["panic"])
}

func TestRecoverAndLog_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverAndLog(nil, "quiet")
	})
}

func TestValidatePrice(t *testing.T) {
	assert.True(t, ValidatePrice(1.1))
	assert.False(t, ValidatePrice(0))
	assert.False(t, ValidatePrice(-3))
	assert.False(t, ValidatePrice(math.NaN()))
	assert.False(t, ValidatePrice(math.Inf(1)))
	assert.False(t, ValidatePrice(2e10))
}
