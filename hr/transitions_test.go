package hr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hrchain/hr"
)

func TestDefaultTransitions_TerminatedIsAbsorbing(t *testing.T) {
	table := hr.DefaultTransitions(false)

	assert.True(t, table.Allowed(hr.StatusActive, hr.StatusOnLeave))
	assert.True(t, table.Allowed(hr.StatusOnLeave, hr.StatusActive))
	assert.True(t, table.Allowed(hr.StatusSuspended, hr.StatusTerminated))

	assert.False(t, table.Allowed(hr.StatusTerminated, hr.StatusActive))
	assert.Empty(t, table.ValidTargets(hr.StatusTerminated))
}

func TestLoadTransitions(t *testing.T) {
	// GIVEN: A YAML table that forbids direct suspension from leave
	path := filepath.Join(t.TempDir(), "transitions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transitions:
  ACTIVE: [ON_LEAVE, TERMINATED]
  ON_LEAVE: [ACTIVE]
  TERMINATED: []
`), 0o644))

	// WHEN: The table is loaded with enforcement on
	table, err := hr.LoadTransitions(path, true)
	require.NoError(t, err)
	assert.True(t, table.Enforce)

	// THEN: Only the listed transitions are allowed
	assert.True(t, table.Allowed(hr.StatusActive, hr.StatusOnLeave))
	assert.False(t, table.Allowed(hr.StatusOnLeave, hr.StatusSuspended))
	assert.False(t, table.Allowed(hr.StatusSuspended, hr.StatusActive),
		"statuses absent from the file have no outgoing transitions")

	assert.Equal(t, []hr.ParticipantStatus{hr.StatusOnLeave, hr.StatusTerminated}, table.ValidTargets(hr.StatusActive))
}

func TestLoadTransitions_UnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transitions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transitions:
  ACTIVE: [RETIRED]
`), 0o644))

	_, err := hr.LoadTransitions(path, false)
	assert.Error(t, err)
}

func TestLoadTransitions_MissingFile(t *testing.T) {
	_, err := hr.LoadTransitions(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}
