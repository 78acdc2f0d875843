package logger

import (
	"testing"

	"github.com/gookit/slog"
	"github.com/stretchr/testify/assert"
)

func resetGlobals(t *testing.T) {
	prevLog, prevName := Log, serviceName
	t.Cleanup(func() { Log, serviceName = prevLog, prevName })
}

func TestInitSetsServiceName(t *testing.T) {
	resetGlobals(t)
	t.Setenv("SERVICE_NAME", "")

	Init("", "retryworker")

	assert.IsType(t, &slog.Logger{}, Log)
	assert.Equal(t, Fields{"service_name": "retryworker"}, withServiceName(nil))
	assert.Equal(t, Fields{"service_name": "api-1"}, withServiceName(Fields{"service_name": "api-1"}))
}

func TestInitPrefersServiceNameEnv(t *testing.T) {
	resetGlobals(t)
	t.Setenv("SERVICE_NAME", "retryworker-canary")

	Init(" DEBUG ", "retryworker")

	assert.Equal(t, "retryworker-canary", withServiceName(Fields{})["service_name"])
}
