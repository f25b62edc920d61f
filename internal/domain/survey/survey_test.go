package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSurveyRejectsMissingFields(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	_, err := NewSurvey("", "X1-DK53-AST", []string{"IRON_ORE"}, expires)
	require.Error(t, err)

	_, err = NewSurvey("SIG-1", "", []string{"IRON_ORE"}, expires)
	require.Error(t, err)

	_, err = NewSurvey("SIG-1", "X1-DK53-AST", nil, expires)
	require.Error(t, err)
}

func TestNewSurveyStartsActive(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	sv, err := NewSurvey("SIG-1", "X1-DK53-AST", []string{"IRON_ORE"}, expires)
	require.NoError(t, err)
	assert.Equal(t, StateActive, sv.ExtractState)
	assert.Equal(t, int64(0), sv.ID)
}

func TestIsExpiredAndIsActive(t *testing.T) {
	now := time.Now()
	sv, err := NewSurvey("SIG-1", "X1-DK53-AST", []string{"IRON_ORE"}, now.Add(time.Minute))
	require.NoError(t, err)

	assert.False(t, sv.IsExpired(now))
	assert.True(t, sv.IsActive(now))

	assert.True(t, sv.IsExpired(now.Add(2*time.Minute)))
	assert.False(t, sv.IsActive(now.Add(2*time.Minute)))
}

func TestWithExhaustedDoesNotMutateOriginal(t *testing.T) {
	now := time.Now()
	sv, err := NewSurvey("SIG-1", "X1-DK53-AST", []string{"IRON_ORE"}, now.Add(time.Minute))
	require.NoError(t, err)

	exhausted := sv.WithExhausted()
	assert.Equal(t, StateActive, sv.ExtractState)
	assert.Equal(t, StateExhausted, exhausted.ExtractState)
	assert.False(t, sv.IsActive(now.Add(time.Hour))) // expired, regardless of state
	assert.False(t, exhausted.IsActive(now))         // exhausted, even while unexpired
}
