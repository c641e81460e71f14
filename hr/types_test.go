package hr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hrchain/hr"
)

func TestParseParticipantStatus(t *testing.T) {
	// Case-insensitive input, canonical uppercase out.
	for raw, want := range map[string]hr.ParticipantStatus{
		"ACTIVE":     hr.StatusActive,
		"on_leave":   hr.StatusOnLeave,
		" suspended": hr.StatusSuspended,
		"Terminated": hr.StatusTerminated,
	} {
		got, err := hr.ParseParticipantStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := hr.ParseParticipantStatus("RETIRED")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hr.ErrValidation))
}

func TestParseRequestStatus(t *testing.T) {
	got, err := hr.ParseRequestStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, hr.RequestApproved, got)

	_, err = hr.ParseRequestStatus("MAYBE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hr.ErrValidation))
}
