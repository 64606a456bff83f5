package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("FLEET_BASE_URL", "http://127.0.0.1:8080")
	os.Setenv("FLEET_ENV", "local")
	defer os.Unsetenv("FLEET_BASE_URL")
	defer os.Unsetenv("FLEET_ENV")

	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "http://127.0.0.1:8080", conf.BaseURL)
	assert.Equal(t, 15*time.Second, conf.HTTPTimeout)
	assert.Equal(t, time.Second, conf.PollInterval)
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
