package subscription

import (
	"time"

	"churchflow-backend/internal/models"
	"churchflow-backend/internal/workflow"
)

// StatusOf derives the effective subscription state. Expiry is computed
// from subscription_ends_at at read time, never served stale.
func StatusOf(ch models.Church, now time.Time) models.SubscriptionStatus {
	if now.After(ch.SubscriptionEndsAt) {
		return models.SubscriptionExpired
	}
	return ch.SubscriptionStatus
}

// RequireActive gates mutating operations (requisition creation) on the
// owning church's subscription. In-flight requisitions are unaffected.
func RequireActive(ch models.Church, now time.Time) error {
	if StatusOf(ch, now) == models.SubscriptionExpired {
		return workflow.SubscriptionExpired("the church's subscription has expired; renew to submit new requisitions")
	}
	return nil
}

// Extend adds months from whichever is later, the current expiry or
// now, so an early renewal keeps its remaining time. A paid extension
// ends a trial.
func Extend(ch *models.Church, months int, now time.Time) {
	base := ch.SubscriptionEndsAt
	if now.After(base) {
		base = now
	}
	ch.SubscriptionEndsAt = base.AddDate(0, months, 0)
	ch.SubscriptionStatus = models.SubscriptionActive
}
