package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolewarden/rolewarden/internal/domain"
)

func threeTiers() []domain.SubscriberTier {
	return []domain.SubscriberTier{
		{MinSubscribers: 0, RoleID: "role-a", TierName: "A"},
		{MinSubscribers: 100, RoleID: "role-b", TierName: "B"},
		{MinSubscribers: 1000, RoleID: "role-c", TierName: "C"},
	}
}

func TestResolveHighestQualifying(t *testing.T) {
	tiers := threeTiers()

	cases := []struct {
		count    int64
		expected string // tier name, "" for nil
	}{
		{0, "A"},
		{50, "A"},
		{99, "A"},
		{100, "B"},
		{999, "B"},
		{1000, "C"},
		{1000000, "C"},
		{-1, "A"}, // negative counts clamp to 0
	}

	for _, tc := range cases {
		tier := Resolve(tc.count, tiers)
		require.NotNil(t, tier, "count %d", tc.count)
		assert.Equal(t, tc.expected, tier.TierName, "count %d", tc.count)
	}
}

func TestResolveBelowLowestThreshold(t *testing.T) {
	tiers := []domain.SubscriberTier{
		{MinSubscribers: 1000, RoleID: "role-s", TierName: "Silver"},
		{MinSubscribers: 5000, RoleID: "role-g", TierName: "Gold"},
	}

	assert.Nil(t, Resolve(999, tiers))
	assert.Nil(t, Resolve(0, tiers))
	assert.Equal(t, int64(1000), MinimumThreshold(tiers))
}

func TestResolveUnorderedInput(t *testing.T) {
	// Resolution must not depend on input ordering.
	tiers := []domain.SubscriberTier{
		{MinSubscribers: 1000, RoleID: "role-c", TierName: "C"},
		{MinSubscribers: 0, RoleID: "role-a", TierName: "A"},
		{MinSubscribers: 100, RoleID: "role-b", TierName: "B"},
	}

	tier := Resolve(500, tiers)
	require.NotNil(t, tier)
	assert.Equal(t, "B", tier.TierName)
}

func TestResolveEmptyConfig(t *testing.T) {
	assert.Nil(t, Resolve(100, nil))
	assert.Equal(t, int64(0), MinimumThreshold(nil))
}

func TestResolveDoesNotAliasInput(t *testing.T) {
	tiers := threeTiers()
	tier := Resolve(100, tiers)
	require.NotNil(t, tier)

	tier.RoleID = "mutated"
	assert.Equal(t, "role-b", tiers[1].RoleID)
}
