package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow/models"
)

func TestBuildFiltersAndMarksActive(t *testing.T) {
	s := models.Session{User: models.User{Username: "ana", Role: "operator"}}
	d := Build(s, map[string]bool{CodeProduction: true, CodeHelp: true}, CodeHelp)

	assert.Equal(t, "ana", d.Username)
	require.Len(t, d.Links, 2)
	assert.Equal(t, CodeProduction, d.Links[0].Code)
	assert.False(t, d.Links[0].Active)
	assert.True(t, d.Links[1].Active)
}
