package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(GrievanceStatusNew, GrievanceStatusUnderProcess))
	assert.True(t, CanTransition(GrievanceStatusUnderProcess, GrievanceStatusResolved))

	assert.False(t, CanTransition(GrievanceStatusNew, GrievanceStatusResolved))
	assert.False(t, CanTransition(GrievanceStatusUnderProcess, GrievanceStatusNew))
	assert.False(t, CanTransition(GrievanceStatusResolved, GrievanceStatusUnderProcess))
	assert.False(t, CanTransition(GrievanceStatusResolved, GrievanceStatusNew))
	assert.False(t, CanTransition(GrievanceStatusNew, GrievanceStatusNew))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, GrievanceStatusNew.Terminal())
	assert.False(t, GrievanceStatusUnderProcess.Terminal())
	assert.True(t, GrievanceStatusResolved.Terminal())
	assert.False(t, GrievanceStatus("CLOSED").Valid())
}
