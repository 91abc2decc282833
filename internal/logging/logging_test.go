package logging

import (
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevel(t *testing.T) {
	Setup("debug", "json")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, ok)

	Setup("nonsense", "text")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestLogErrorFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	LogError("store", errors.New("connection refused"), log.Fields{"operation_id": 7})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.ErrorLevel, entry.Level)
	assert.Equal(t, "store", entry.Data["error_type"])
	assert.Equal(t, "connection refused", entry.Data["error"])
	assert.Equal(t, 7, entry.Data["operation_id"])
}

func TestInitSentryEmptyDSN(t *testing.T) {
	require.NoError(t, InitSentry("", "test"))
	assert.False(t, sentryEnabled)
}
