package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_HandleLog(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	logger.WithFields(log.Fields{"postal_code": "48933", "county": "Ingham County"}).Warn("using fallback")

	assert.Equal(t, "2024-03-01 09:30:00 W using fallback county=Ingham County postal_code=48933\n", buf.String())
}

func TestInitLogger_Level(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	InitLogger()

	logger, ok := log.Log.(*log.Logger)
	require.True(t, ok)
	assert.Equal(t, log.DebugLevel, logger.Level)

	t.Setenv(LevelEnv, "nonsense")
	InitLogger()
	assert.Equal(t, log.InfoLevel, logger.Level)
}
