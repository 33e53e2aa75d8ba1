package access

import (
	"context"
	"log"
	"time"

	"telegram-babylog-bot/internal/models"
)

// Feature keys checked by the gate.
const (
	FeatureBasicTracking = "basic_tracking"
	FeatureSimpleSummary = "simple_summary"
	FeatureIntakeChart   = "intake_chart"
	FeaturePDFReports    = "pdf_reports"
	FeatureGrowthCharts  = "growth_charts"
	FeatureWeeklyTrends  = "weekly_trends"
	FeatureDataExport    = "data_export"
)

// freeFeatures are available to everyone.
var freeFeatures = map[string]bool{
	FeatureBasicTracking: true,
	FeatureSimpleSummary: true,
	FeatureIntakeChart:   true,
	FeatureDataExport:    true,
}

// premiumFeatures require an active premium subscription.
var premiumFeatures = map[string]bool{
	FeaturePDFReports:   true,
	FeatureGrowthCharts: true,
	FeatureWeeklyTrends: true,
}

// Reason explains a gate decision.
type Reason string

const (
	ReasonPremiumActive   Reason = "premium_active"
	ReasonFreeTier        Reason = "free_tier"
	ReasonFeatureDisabled Reason = "feature_disabled"
)

// Decision is the result of an access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// SubscriptionStore supplies subscription state. A nil subscription with a
// nil error means the identity has never subscribed.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, identity string) (*models.Subscription, error)
}

// Gate decides whether an identity may use a feature. It never mutates
// subscription state.
type Gate struct {
	store SubscriptionStore
	now   func() time.Time
}

// NewGate creates a gate backed by the given subscription store
func NewGate(store SubscriptionStore) *Gate {
	return &Gate{store: store, now: time.Now}
}

// Decide checks whether identity may use feature. If the subscription
// lookup fails the gate fails closed and treats the identity as free tier.
func (g *Gate) Decide(ctx context.Context, identity, feature string) Decision {
	if freeFeatures[feature] {
		return Decision{Allowed: true, Reason: ReasonFreeTier}
	}
	if !premiumFeatures[feature] {
		return Decision{Allowed: false, Reason: ReasonFeatureDisabled}
	}

	sub, err := g.store.GetSubscription(ctx, identity)
	if err != nil {
		log.Printf("Subscription lookup failed for %s, treating as free tier: %v", identity, err)
		return Decision{Allowed: false, Reason: ReasonFreeTier}
	}
	if sub.ActiveAt(g.now()) {
		return Decision{Allowed: true, Reason: ReasonPremiumActive}
	}
	return Decision{Allowed: false, Reason: ReasonFreeTier}
}
