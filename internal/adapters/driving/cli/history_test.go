package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

func TestHistoryCmd_Show(t *testing.T) {
	ts := setupTestServices(t)
	ts.sessions.exchanges = map[string][]domain.Exchange{
		"session_1": {
			{User: "what is a mock", Assistant: "a stand-in"},
			{User: "and a stub?", Assistant: "a canned reply"},
		},
	}

	out, err := executeCommand(t, "", "history", "session_1")

	require.NoError(t, err)
	assert.Contains(t, out, "User: what is a mock\nAssistant: a stand-in\n\nUser: and a stub?")
}

func TestHistoryCmd_ShowEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "history", "session_unknown")

	require.NoError(t, err)
	assert.Contains(t, out, "No history for this session.")
}

func TestHistoryCmd_Clear(t *testing.T) {
	ts := setupTestServices(t)

	out, err := executeCommand(t, "", "history", "clear", "session_1")

	require.NoError(t, err)
	assert.Equal(t, []string{"session_1"}, ts.sessions.cleared)
	assert.Contains(t, out, "Cleared session: session_1")
}
