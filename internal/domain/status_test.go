package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Opposite(t *testing.T) {
	assert.Equal(t, StatusOut, StatusIn.Opposite())
	assert.Equal(t, StatusIn, StatusOut.Opposite())
	// an unset status behaves like out
	assert.Equal(t, StatusIn, Status("").Opposite())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusIn.Valid())
	assert.True(t, StatusOut.Valid())
	assert.False(t, Status("IN").Valid())
	assert.False(t, Status("").Valid())
}

func TestNormalizeStudentID(t *testing.T) {
	assert.Equal(t, "CS001", NormalizeStudentID("  cs001 "))
	assert.Equal(t, "", NormalizeStudentID("   "))
}

func TestNewActivity_ExpiresAfterTTL(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := StudentSnapshot{StudentID: "CS001", Name: "Asha", Department: "CSE"}

	a, err := NewActivity(snap, StatusIn, ts, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "CS001", a.StudentID)
	assert.Equal(t, ts.Add(24*time.Hour), a.ExpiresAt)

	decoded, err := a.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}
