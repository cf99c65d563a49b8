package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ProductionWritesJSON(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	Configure(l, buf, "debug", "production")

	l.WithField("rule_id", 7).Debug("booked")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booked", line["msg"])
	assert.Equal(t, float64(7), line["rule_id"])
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	Configure(l, buf, "chatty", "development")

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level 'chatty'")
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
