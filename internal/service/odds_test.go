package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutPositiveOdds(t *testing.T) {
	got, err := Payout("+150", 100)
	require.NoError(t, err)
	assert.InDelta(t, 250, got, 0.001)
}

func TestPayoutNegativeOdds(t *testing.T) {
	got, err := Payout("-120", 120)
	require.NoError(t, err)
	assert.InDelta(t, 220, got, 0.001)
}

func TestPayoutUnsignedTreatedAsNegative(t *testing.T) {
	got, err := Payout("110", 110)
	require.NoError(t, err)
	assert.InDelta(t, 210, got, 0.001)
}

func TestPayoutInvalid(t *testing.T) {
	for _, odds := range []string{"", "+", "-0", "0", "odds", "+abc"} {
		_, err := Payout(odds, 100)
		assert.Error(t, err, "odds %q", odds)
	}
}
