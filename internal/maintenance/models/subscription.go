package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// subscriptionTransitions is the exhaustive transition table.
// cancelled is terminal; expired may return to active on
// re-subscription; a trial never recurs for the same company
// (enforced by Company.TrialUsed, not by this table).
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionTrial:     {SubscriptionActive, SubscriptionExpired, SubscriptionCancelled},
	SubscriptionActive:    {SubscriptionActive, SubscriptionExpired, SubscriptionCancelled},
	SubscriptionExpired:   {SubscriptionActive},
	SubscriptionCancelled: {},
}

// Valid reports whether the status is one of the closed set.
func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

// CanTransitionTo reports whether the table allows s -> next.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, t := range subscriptionTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// PlanType determines the billing period length.
type PlanType string

const (
	PlanMonthly PlanType = "monthly"
	PlanAnnual  PlanType = "annual"
)

// BillingEventType classifies events delivered by the billing webhook
// receiver. The provider itself is opaque to the core.
type BillingEventType string

const (
	BillingPaymentSucceeded BillingEventType = "payment_succeeded"
	BillingPaymentFailed    BillingEventType = "payment_failed"
	BillingCancelled        BillingEventType = "cancelled"
	BillingTrialStarted     BillingEventType = "trial_started"
)

// Valid reports whether the event type is one of the closed set.
func (t BillingEventType) Valid() bool {
	switch t {
	case BillingPaymentSucceeded, BillingPaymentFailed, BillingCancelled, BillingTrialStarted:
		return true
	}
	return false
}

// Subscription is one lifecycle row of a company. At most one row per
// company is Current; historical rows are kept for audit. Trial expiry
// is governed by IsTrial/TrialEndDate independent of EndDate.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	Status    SubscriptionStatus `gorm:"size:20;index"`
	PlanType  PlanType           `gorm:"size:20"`
	IsTrial   bool
	// Current marks the single row the company lifecycle operates on.
	Current      bool `gorm:"index"`
	StartDate    time.Time
	EndDate      time.Time
	TrialEndDate *time.Time
	// LastNotificationSent suppresses duplicate expiring-soon
	// notifications within a 24 hour window.
	LastNotificationSent *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ExpiresAt is the instant the subscription lapses: TrialEndDate for
// trials, EndDate otherwise.
func (s *Subscription) ExpiresAt() time.Time {
	if s.IsTrial && s.TrialEndDate != nil {
		return *s.TrialEndDate
	}
	return s.EndDate
}
