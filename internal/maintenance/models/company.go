// Package models defines the core domain models for the maintenance
// management core: tenants, users, assets, inventory, work orders,
// maintenance requests, preventive schedules, subscriptions and
// notifications. Statuses are closed typed string sets with explicit
// transition tables.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant root. Every other entity is owned by exactly
// one company via CompanyID.
//
// The subscription fields are a denormalized mirror of the current
// Subscription row. They are written only by the subscription engine,
// in the same transaction as the Subscription transition.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// Name is the company's display name.
	Name string `gorm:"size:120;uniqueIndex"`
	// SubscriptionStatus mirrors the current Subscription status.
	SubscriptionStatus SubscriptionStatus `gorm:"size:20"`
	// SubscriptionPlan mirrors the current Subscription plan type.
	SubscriptionPlan PlanType `gorm:"size:20"`
	// SubscriptionStart mirrors the current Subscription window start.
	SubscriptionStart *time.Time
	// SubscriptionEnd mirrors the current Subscription window end.
	SubscriptionEnd *time.Time
	// BillingRef is the opaque reference of the external billing provider.
	BillingRef string `gorm:"size:120"`
	// TrialUsed is set once a trial subscription has been started;
	// a company never gets a second trial.
	TrialUsed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
