package tiers

import "github.com/rolewarden/rolewarden/internal/domain"

// Resolve maps a subscriber count to the highest qualifying tier: the tier
// with the largest MinSubscribers that is <= count. Returns nil if the count
// is below every configured threshold. Negative counts are clamped to 0.
//
// Thresholds are unique per guild, so there are no ties.
func Resolve(count int64, configured []domain.SubscriberTier) *domain.SubscriberTier {
	if count < 0 {
		count = 0
	}

	var best *domain.SubscriberTier
	for i := range configured {
		tier := &configured[i]
		if tier.MinSubscribers > count {
			continue
		}
		if best == nil || tier.MinSubscribers > best.MinSubscribers {
			best = tier
		}
	}

	if best == nil {
		return nil
	}
	result := *best
	return &result
}

// MinimumThreshold returns the lowest configured threshold, so callers can
// tell a user how many subscribers the bottom tier requires. Returns 0 for an
// empty config.
func MinimumThreshold(configured []domain.SubscriberTier) int64 {
	if len(configured) == 0 {
		return 0
	}
	min := configured[0].MinSubscribers
	for _, tier := range configured[1:] {
		if tier.MinSubscribers < min {
			min = tier.MinSubscribers
		}
	}
	return min
}
