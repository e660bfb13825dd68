package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLogLevel("debug"))
	require.Equal(t, WARNING, ParseLogLevel("WARN"))
	require.Equal(t, WARNING, ParseLogLevel("warning"))
	require.Equal(t, ERROR, ParseLogLevel(" error "))
	require.Equal(t, INFO, ParseLogLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(WARNING, &buf)

	Info("hidden %d", 1)
	require.Empty(t, buf.String())

	Warning("shown %d", 2)
	require.Contains(t, buf.String(), "shown 2")

	SetLevel(DEBUG)
	require.True(t, IsDebugEnabled())
	Debug("now visible")
	require.Contains(t, buf.String(), "now visible")
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	Init(INFO, &first)
	SetOutput(&second)

	Error("boom")
	require.Empty(t, first.String())
	require.Contains(t, second.String(), "boom")
	require.Equal(t, INFO, GetLevel())
}
