package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/config"
)

func TestNewLevels(t *testing.T) {
	log := New(config.LogConfig{Level: "warn", Encoding: "json"})
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	log = New(config.LogConfig{Level: "debug", Encoding: "console"})
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := New(config.LogConfig{Level: "loud"})
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}
