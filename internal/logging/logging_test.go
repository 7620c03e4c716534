package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsm/config"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	Component(logger, "cosine").Debug("query ranked")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cosine", line["component"])
	assert.Equal(t, "query ranked", line["msg"])
}

func TestNew_LevelFallback(t *testing.T) {
	logger := NewWithOutput(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger = NewWithOutput(config.LoggingConfig{Level: "warn"}, &bytes.Buffer{})
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}
