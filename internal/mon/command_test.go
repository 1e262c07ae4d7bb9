package mon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommandRecognizesSoftReset(t *testing.T) {
	require.Equal(t, CommandSoftReset, ParseCommand("!cmd:soft_reset"))
}

func TestParseCommandRecognizesHardReset(t *testing.T) {
	require.Equal(t, CommandHardReset, ParseCommand("!cmd:hard_reset"))
}

func TestParseCommandTrimsWhitespace(t *testing.T) {
	require.Equal(t, CommandSoftReset, ParseCommand("  !cmd:soft_reset\r\n"))
}

func TestParseCommandIgnoresUnrecognizedLines(t *testing.T) {
	require.Equal(t, CommandNone, ParseCommand("some sensor chatter"))
	require.Equal(t, CommandNone, ParseCommand(""))
}
