package models

import "time"

// Subscription tiers.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Subscription represents one identity's subscription state.
type Subscription struct {
	Identity         string `bson:"_id" json:"identity"`
	Tier             string `bson:"tier" json:"tier"`
	Start            int64  `bson:"start" json:"start"`
	End              int64  `bson:"end" json:"end"`
	PaymentReference string `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	UpdatedAt        int64  `bson:"updatedAt" json:"updatedAt"`
}

// ActiveAt reports whether the subscription grants premium access at t.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s != nil && s.Tier == TierPremium && s.End > t.Unix()
}
