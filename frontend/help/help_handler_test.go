package help

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow/frontend/production"
)

func TestCommandRowsFollowActionOrder(t *testing.T) {
	rows := commandRows()
	require.Len(t, rows, len(production.Actions()))
	for _, r := range rows {
		assert.NotEmpty(t, r.Meaning, r.Label)
	}
	last := rows[len(rows)-1]
	assert.Equal(t, "4", last.StatusCode)
	assert.True(t, last.RequiresReason)
}

func TestHelpPageListsEveryStatus(t *testing.T) {
	var buf bytes.Buffer
	data := PageData{Statuses: statusRows(), Commands: commandRows()}
	require.NoError(t, HelpPage(data).Render(context.Background(), &buf))
	for _, s := range production.Statuses() {
		assert.Contains(t, buf.String(), s.Label)
	}
	assert.NotContains(t, buf.String(), "histórico de comandos e gerenciar")
}
