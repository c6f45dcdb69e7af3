package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, resolveLevel(""))
	assert.Equal(t, zerolog.DebugLevel, resolveLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, resolveLevel("warn"))
	// unknown values fall back rather than silencing the logger
	assert.Equal(t, zerolog.InfoLevel, resolveLevel("chatty"))
}

func TestLoggerFromContext_NoSpan(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	require.NotNil(t, logger)
}
