package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLineMode(t *testing.T) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func TestChatCmd_Flags(t *testing.T) {
	flag := chatCmd.Flags().Lookup("session")
	require.NotNil(t, flag)
	assert.Equal(t, "s", flag.Shorthand)
}

func TestChatCmd_LineMode(t *testing.T) {
	ts := setupTestServices(t)
	withLineMode(t)

	out, err := executeCommand(t, "what is a mock\n\n  and a stub?  \n", "chat")

	require.NoError(t, err)
	assert.Equal(t, []string{"what is a mock", "and a stub?"}, ts.answer.questions)
	// The second question continues the session the first one started.
	assert.Equal(t, []string{"", "session_1"}, ts.answer.sessions)
	assert.Contains(t, out, "> what is a mock\nanswer to what is a mock")
	assert.Contains(t, out, "> and a stub?\nanswer to and a stub?")
}

func TestChatCmd_LineModeWithSession(t *testing.T) {
	ts := setupTestServices(t)
	withLineMode(t)

	_, err := executeCommand(t, "hello\n", "chat", "--session", "session_4")

	require.NoError(t, err)
	assert.Equal(t, []string{"session_4"}, ts.answer.sessions)
}

func TestChatCmd_LineModeKeepsGoingOnError(t *testing.T) {
	ts := setupTestServices(t)
	ts.answer.err = errors.New("rate limited")
	withLineMode(t)

	out, err := executeCommand(t, "one\ntwo\n", "chat")

	require.NoError(t, err)
	assert.Len(t, ts.answer.questions, 2)
	assert.Contains(t, out, "Error: rate limited")
}
